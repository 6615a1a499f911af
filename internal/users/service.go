package users

import (
	"context"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/amparo-cms/amparo-cms/internal/rbac"
	"github.com/amparo-cms/amparo-cms/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, email, name, passwordHash string, roleIDs []int64) (User, error)
	UpdateUserTx(ctx context.Context, tx pgx.Tx, id int64, email, name string, isActive bool) error
	ReplaceUserRolesTx(ctx context.Context, tx pgx.Tx, userID int64, roleIDs []int64) error
	DeactivateUserTx(ctx context.Context, tx pgx.Tx, id int64) error
	AssignRole(ctx context.Context, userID, roleID int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
	RemoveRoleTx(ctx context.Context, tx pgx.Tx, userID, roleID int64) error
}

// AdminGuardPort serializes mutations that could affect the number of active
// administrators and checks the invariant inside that critical section.
type AdminGuardPort interface {
	WithAdminLock(ctx context.Context, fn func(pgx.Tx) error) error
	UserHoldsActiveAdminRole(ctx context.Context, tx pgx.Tx, userID int64) (bool, error)
	EnsureAnotherActiveAdmin(ctx context.Context, tx pgx.Tx, excludeUserID int64, kind string) error
}

// UpdateParams carries a full user update.
type UpdateParams struct {
	Email    string
	Name     string
	IsActive bool
	RoleIDs  []int64
}

// Service handles user management business rules. Every mutation that could
// remove the last active administrator runs under the admin guard's lock.
type Service struct {
	repo  RepositoryPort
	guard AdminGuardPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, guard AdminGuardPort) *Service {
	return &Service{repo: repo, guard: guard}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser registers an active user with a hashed password and initial
// role assignments.
func (s *Service) CreateUser(ctx context.Context, email, name, password string, roleIDs []int64) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.CreateUser(ctx, email, name, string(hash), roleIDs)
}

// UpdateUser replaces the account fields and the active role set. An update
// that would deactivate the last active administrator, or strip its
// administrator role, is refused.
func (s *Service) UpdateUser(ctx context.Context, id int64, p UpdateParams) (User, error) {
	err := s.guard.WithAdminLock(ctx, func(tx pgx.Tx) error {
		holdsAdmin, err := s.guard.UserHoldsActiveAdminRole(ctx, tx, id)
		if err != nil {
			return err
		}
		if holdsAdmin && demotesAdmin(p) {
			if err := s.guard.EnsureAnotherActiveAdmin(ctx, tx, id, shared.KindMustHaveAdmin); err != nil {
				return err
			}
		}
		if err := s.repo.UpdateUserTx(ctx, tx, id, p.Email, p.Name, p.IsActive); err != nil {
			return err
		}
		return s.repo.ReplaceUserRolesTx(ctx, tx, id, p.RoleIDs)
	})
	if err != nil {
		return User{}, err
	}
	return s.repo.GetUser(ctx, id)
}

// DeactivateUser soft-deletes a user unless that would leave the system
// without an active administrator. Targets without an active administrator
// role skip the count entirely.
func (s *Service) DeactivateUser(ctx context.Context, id int64) error {
	return s.guard.WithAdminLock(ctx, func(tx pgx.Tx) error {
		holdsAdmin, err := s.guard.UserHoldsActiveAdminRole(ctx, tx, id)
		if err != nil {
			return err
		}
		if holdsAdmin {
			if err := s.guard.EnsureAnotherActiveAdmin(ctx, tx, id, shared.KindCannotDeactivateLastAdmin); err != nil {
				return err
			}
		}
		return s.repo.DeactivateUserTx(ctx, tx, id)
	})
}

// AssignRole adds a role to a user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	return s.repo.AssignRole(ctx, userID, roleID)
}

// RemoveRole removes a role from a user. Removing the administrator role is
// guarded so the last active administrator cannot lose it.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	if roleID != rbac.AdminRoleID {
		return s.repo.RemoveRole(ctx, userID, roleID)
	}
	return s.guard.WithAdminLock(ctx, func(tx pgx.Tx) error {
		if err := s.guard.EnsureAnotherActiveAdmin(ctx, tx, userID, shared.KindCannotRemoveLastAdmin); err != nil {
			return err
		}
		return s.repo.RemoveRoleTx(ctx, tx, userID, roleID)
	})
}

func demotesAdmin(p UpdateParams) bool {
	if !p.IsActive {
		return true
	}
	for _, id := range p.RoleIDs {
		if id == rbac.AdminRoleID {
			return false
		}
	}
	return true
}
