package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amparo-cms/amparo-cms/internal/platform/db"
	"github.com/amparo-cms/amparo-cms/internal/platform/httpx"
	"github.com/amparo-cms/amparo-cms/internal/shared"
)

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users with their role ids.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, name, is_active, created_at, updated_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		roleIDs, err := r.activeRoleIDs(ctx, r.pool, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].RoleIDs = roleIDs
	}
	return list, nil
}

// GetUser fetches one user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, is_active, created_at, updated_at FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	user.RoleIDs, err = r.activeRoleIDs(ctx, r.pool, id)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// CreateUser inserts a user with its role assignments in one transaction.
func (r *Repository) CreateUser(ctx context.Context, email, name, passwordHash string, roleIDs []int64) (User, error) {
	var user User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (email, name, password_hash, is_active)
			 VALUES ($1, $2, $3, true)
			 RETURNING id, email, name, is_active, created_at, updated_at`,
			email, name, passwordHash,
		).Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return httpx.ErrDuplicate
			}
			return err
		}
		for _, roleID := range roleIDs {
			if err := assignRole(ctx, tx, user.ID, roleID); err != nil {
				return err
			}
		}
		user.RoleIDs = roleIDs
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateUserTx updates the mutable account fields inside a transaction.
func (r *Repository) UpdateUserTx(ctx context.Context, tx pgx.Tx, id int64, email, name string, isActive bool) error {
	tag, err := tx.Exec(ctx,
		`UPDATE users SET email = $2, name = $3, is_active = $4, updated_at = now() WHERE id = $1`,
		id, email, name, isActive)
	if err != nil {
		if isUniqueViolation(err) {
			return httpx.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReplaceUserRolesTx makes roleIDs the exact set of active assignments:
// missing links are inserted or reactivated, everything else is deactivated.
func (r *Repository) ReplaceUserRolesTx(ctx context.Context, tx pgx.Tx, userID int64, roleIDs []int64) error {
	if _, err := tx.Exec(ctx,
		`UPDATE user_roles SET is_active = false WHERE user_id = $1 AND role_id <> ALL($2)`,
		userID, roleIDs); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if err := assignRole(ctx, tx, userID, roleID); err != nil {
			return err
		}
	}
	return nil
}

// DeactivateUserTx soft-deletes a user inside a transaction.
func (r *Repository) DeactivateUserTx(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE users SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AssignRole activates (or creates) one user-role assignment.
func (r *Repository) AssignRole(ctx context.Context, userID, roleID int64) error {
	return assignRole(ctx, r.pool, userID, roleID)
}

// RemoveRole deactivates one user-role assignment.
func (r *Repository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	return removeRole(ctx, r.pool, userID, roleID)
}

// RemoveRoleTx deactivates one user-role assignment inside a transaction.
func (r *Repository) RemoveRoleTx(ctx context.Context, tx pgx.Tx, userID, roleID int64) error {
	return removeRole(ctx, tx, userID, roleID)
}

func (r *Repository) activeRoleIDs(ctx context.Context, q querier, userID int64) ([]int64, error) {
	rows, err := q.Query(ctx,
		`SELECT role_id FROM user_roles WHERE user_id = $1 AND is_active ORDER BY role_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func assignRole(ctx context.Context, q querier, userID, roleID int64) error {
	_, err := q.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id, is_active) VALUES ($1, $2, true)
		 ON CONFLICT (user_id, role_id) DO UPDATE SET is_active = true`,
		userID, roleID)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func removeRole(ctx context.Context, q querier, userID, roleID int64) error {
	tag, err := q.Exec(ctx,
		`UPDATE user_roles SET is_active = false WHERE user_id = $1 AND role_id = $2 AND is_active`,
		userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
