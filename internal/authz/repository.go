package authz

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed permission lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindActiveRoleWindowPermissions returns the permission rows the given roles
// hold on the referenced window. Only active roles and active windows count;
// the caller supplies role ids that were already filtered to active user-role
// assignments during authentication.
func (r *Repository) FindActiveRoleWindowPermissions(ctx context.Context, roleIDs []int64, window WindowRef) ([]PermissionSet, error) {
	const base = `SELECT rwp.can_create, rwp.can_read, rwp.can_update, rwp.can_delete
	   FROM role_window_permissions rwp
	   JOIN roles r ON r.id = rwp.role_id AND r.is_active
	   JOIN windows w ON w.id = rwp.window_id AND w.is_active
	  WHERE rwp.role_id = ANY($1)`

	query := base + ` AND w.name = $2`
	arg := any(window.Name())
	if id, ok := window.ByID(); ok {
		query = base + ` AND w.id = $2`
		arg = id
	}

	rows, err := r.pool.Query(ctx, query, roleIDs, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []PermissionSet
	for rows.Next() {
		var s PermissionSet
		if err := rows.Scan(&s.Create, &s.Read, &s.Update, &s.Delete); err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}
