package rbac

import (
	"context"

	"github.com/amparo-cms/amparo-cms/internal/authz"
)

// RepositoryPort defines data access methods for authorization management.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	ListWindows(ctx context.Context) ([]Window, error)
	ListRolePermissions(ctx context.Context, roleID int64) ([]RoleWindowPermission, error)
	GetPermission(ctx context.Context, roleID, windowID int64) (RoleWindowPermission, error)
	UpsertPermission(ctx context.Context, p RoleWindowPermission) (RoleWindowPermission, error)
	DeletePermission(ctx context.Context, roleID, windowID int64) error
}

// Service orchestrates authorization management: roles, windows and the
// permission rows tying them together.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// ListWindows returns all windows.
func (s *Service) ListWindows(ctx context.Context) ([]Window, error) {
	return s.repo.ListWindows(ctx)
}

// ListRolePermissions returns the permission rows of one role.
func (s *Service) ListRolePermissions(ctx context.Context, roleID int64) ([]RoleWindowPermission, error) {
	return s.repo.ListRolePermissions(ctx, roleID)
}

// GetPermission fetches one permission row.
func (s *Service) GetPermission(ctx context.Context, roleID, windowID int64) (RoleWindowPermission, error) {
	return s.repo.GetPermission(ctx, roleID, windowID)
}

// UpsertPermission creates or replaces a permission row. Rows of the
// administrator role are immutable through this API.
func (s *Service) UpsertPermission(ctx context.Context, roleID, windowID int64, set authz.PermissionSet) (RoleWindowPermission, error) {
	if err := EnsureEditableRole(roleID); err != nil {
		return RoleWindowPermission{}, err
	}
	return s.repo.UpsertPermission(ctx, RoleWindowPermission{RoleID: roleID, WindowID: windowID, Set: set})
}

// DeletePermission removes a permission row, with the same administrator-role
// protection as UpsertPermission.
func (s *Service) DeletePermission(ctx context.Context, roleID, windowID int64) error {
	if err := EnsureEditableRole(roleID); err != nil {
		return err
	}
	return s.repo.DeletePermission(ctx, roleID, windowID)
}
