package rbac

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amparo-cms/amparo-cms/internal/platform/db"
	"github.com/amparo-cms/amparo-cms/internal/shared"
)

// adminGuardLockID keys the advisory lock serializing every mutation that
// could change the number of active administrators. Holding it for the whole
// count-then-write sequence closes the race where two concurrent demotions
// each see one remaining admin.
const adminGuardLockID int64 = 0x414d5041524f31 // "AMPARO1"

// AdminGuard enforces the administrator-availability invariant: at least one
// active user holding an active administrator role must exist at all times.
type AdminGuard struct {
	pool *pgxpool.Pool
}

// NewAdminGuard constructs an AdminGuard.
func NewAdminGuard(pool *pgxpool.Pool) *AdminGuard {
	return &AdminGuard{pool: pool}
}

// WithAdminLock runs fn inside a transaction holding the admin invariant
// advisory lock. The check and the write it protects commit or roll back
// together.
func (g *AdminGuard) WithAdminLock(ctx context.Context, fn func(pgx.Tx) error) error {
	return db.WithTx(ctx, g.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, adminGuardLockID); err != nil {
			return fmt.Errorf("rbac: acquire admin lock: %w", err)
		}
		return fn(tx)
	})
}

// CountActiveAdmins counts active users holding an active administrator-role
// assignment, excluding the given user id (0 excludes nobody).
func (g *AdminGuard) CountActiveAdmins(ctx context.Context, tx pgx.Tx, excludeUserID int64) (int64, error) {
	const query = `SELECT COUNT(DISTINCT u.id)
	   FROM users u
	   JOIN user_roles ur ON ur.user_id = u.id AND ur.is_active
	   JOIN roles r ON r.id = ur.role_id AND r.is_active
	  WHERE r.id = $1 AND u.is_active AND u.id <> $2`
	var count int64
	if err := tx.QueryRow(ctx, query, AdminRoleID, excludeUserID).Scan(&count); err != nil {
		return 0, fmt.Errorf("rbac: count active admins: %w", err)
	}
	return count, nil
}

// EnsureAnotherActiveAdmin rejects the mutation with an invariant error of
// the given kind when no active administrator besides excludeUserID remains.
func (g *AdminGuard) EnsureAnotherActiveAdmin(ctx context.Context, tx pgx.Tx, excludeUserID int64, kind string) error {
	count, err := g.CountActiveAdmins(ctx, tx, excludeUserID)
	if err != nil {
		return err
	}
	if count == 0 {
		return shared.NewInvariantError(kind)
	}
	return nil
}

// UserHoldsActiveAdminRole reports whether the user currently holds an active
// administrator-role assignment.
func (g *AdminGuard) UserHoldsActiveAdminRole(ctx context.Context, tx pgx.Tx, userID int64) (bool, error) {
	const query = `SELECT EXISTS (
	  SELECT 1 FROM user_roles ur
	    JOIN roles r ON r.id = ur.role_id AND r.is_active
	   WHERE ur.user_id = $1 AND ur.role_id = $2 AND ur.is_active)`
	var holds bool
	if err := tx.QueryRow(ctx, query, userID, AdminRoleID).Scan(&holds); err != nil {
		return false, fmt.Errorf("rbac: check admin membership: %w", err)
	}
	return holds, nil
}

// EnsureEditableRole rejects any create, update or delete of a permission row
// belonging to the administrator role, regardless of admin count.
func EnsureEditableRole(roleID int64) error {
	if roleID == AdminRoleID {
		return shared.NewInvariantError(shared.KindAdminRoleProtected)
	}
	return nil
}
