package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amparo-cms/amparo-cms/internal/authz"
	"github.com/amparo-cms/amparo-cms/internal/shared"
)

type stubRepo struct {
	upserted *RoleWindowPermission
	deleted  *[2]int64
}

func (r *stubRepo) ListRoles(ctx context.Context) ([]Role, error)     { return nil, nil }
func (r *stubRepo) ListWindows(ctx context.Context) ([]Window, error) { return nil, nil }

func (r *stubRepo) ListRolePermissions(ctx context.Context, roleID int64) ([]RoleWindowPermission, error) {
	return nil, nil
}

func (r *stubRepo) GetPermission(ctx context.Context, roleID, windowID int64) (RoleWindowPermission, error) {
	return RoleWindowPermission{RoleID: roleID, WindowID: windowID}, nil
}

func (r *stubRepo) UpsertPermission(ctx context.Context, p RoleWindowPermission) (RoleWindowPermission, error) {
	r.upserted = &p
	return p, nil
}

func (r *stubRepo) DeletePermission(ctx context.Context, roleID, windowID int64) error {
	r.deleted = &[2]int64{roleID, windowID}
	return nil
}

func TestUpsertPermissionAdminRoleProtected(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, err := svc.UpsertPermission(context.Background(), AdminRoleID, 3, authz.PermissionSet{Read: true})

	var invariant *shared.InvariantError
	require.ErrorAs(t, err, &invariant)
	assert.Equal(t, shared.KindAdminRoleProtected, invariant.Kind)
	assert.Nil(t, repo.upserted, "protected row must not be written")
}

func TestDeletePermissionAdminRoleProtected(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	err := svc.DeletePermission(context.Background(), AdminRoleID, 3)

	var invariant *shared.InvariantError
	require.ErrorAs(t, err, &invariant)
	assert.Equal(t, shared.KindAdminRoleProtected, invariant.Kind)
	assert.Nil(t, repo.deleted)
}

func TestUpsertPermissionOtherRole(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	p, err := svc.UpsertPermission(context.Background(), 2, 3, authz.PermissionSet{Read: true, Update: true})
	require.NoError(t, err)

	assert.Equal(t, int64(2), p.RoleID)
	assert.Equal(t, int64(3), p.WindowID)
	require.NotNil(t, repo.upserted)
	assert.Equal(t, authz.PermissionSet{Read: true, Update: true}, repo.upserted.Set)
}

func TestDeletePermissionOtherRole(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	require.NoError(t, svc.DeletePermission(context.Background(), 2, 3))
	require.NotNil(t, repo.deleted)
	assert.Equal(t, [2]int64{2, 3}, *repo.deleted)
}
