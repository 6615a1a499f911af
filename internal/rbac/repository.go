package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amparo-cms/amparo-cms/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRoles returns all roles ordered by id.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, is_active FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.IsActive); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ListWindows returns all windows ordered by id.
func (r *Repository) ListWindows(ctx context.Context) ([]Window, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, is_active FROM windows ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var windows []Window
	for rows.Next() {
		var win Window
		if err := rows.Scan(&win.ID, &win.Name, &win.IsActive); err != nil {
			return nil, err
		}
		windows = append(windows, win)
	}
	return windows, rows.Err()
}

// ListRolePermissions returns the permission rows of one role.
func (r *Repository) ListRolePermissions(ctx context.Context, roleID int64) ([]RoleWindowPermission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role_id, window_id, can_create, can_read, can_update, can_delete
		   FROM role_window_permissions WHERE role_id = $1 ORDER BY window_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []RoleWindowPermission
	for rows.Next() {
		var p RoleWindowPermission
		if err := rows.Scan(&p.RoleID, &p.WindowID, &p.Set.Create, &p.Set.Read, &p.Set.Update, &p.Set.Delete); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GetPermission fetches one permission row by composite key.
func (r *Repository) GetPermission(ctx context.Context, roleID, windowID int64) (RoleWindowPermission, error) {
	var p RoleWindowPermission
	err := r.pool.QueryRow(ctx,
		`SELECT role_id, window_id, can_create, can_read, can_update, can_delete
		   FROM role_window_permissions WHERE role_id = $1 AND window_id = $2`,
		roleID, windowID,
	).Scan(&p.RoleID, &p.WindowID, &p.Set.Create, &p.Set.Read, &p.Set.Update, &p.Set.Delete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleWindowPermission{}, shared.ErrNotFound
		}
		return RoleWindowPermission{}, err
	}
	return p, nil
}

// UpsertPermission inserts or replaces one permission row.
func (r *Repository) UpsertPermission(ctx context.Context, p RoleWindowPermission) (RoleWindowPermission, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO role_window_permissions (role_id, window_id, can_create, can_read, can_update, can_delete)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (role_id, window_id) DO UPDATE
		    SET can_create = EXCLUDED.can_create, can_read = EXCLUDED.can_read,
		        can_update = EXCLUDED.can_update, can_delete = EXCLUDED.can_delete
		 RETURNING role_id, window_id, can_create, can_read, can_update, can_delete`,
		p.RoleID, p.WindowID, p.Set.Create, p.Set.Read, p.Set.Update, p.Set.Delete,
	).Scan(&p.RoleID, &p.WindowID, &p.Set.Create, &p.Set.Read, &p.Set.Update, &p.Set.Delete)
	if err != nil {
		return RoleWindowPermission{}, err
	}
	return p, nil
}

// DeletePermission removes one permission row. Returns shared.ErrNotFound
// when nothing was deleted.
func (r *Repository) DeletePermission(ctx context.Context, roleID, windowID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM role_window_permissions WHERE role_id = $1 AND window_id = $2`,
		roleID, windowID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
