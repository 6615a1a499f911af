package users

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/amparo-cms/amparo-cms/internal/shared"
)

type stubGuard struct {
	holdsAdmin  bool
	otherAdmins int64
	checked     []string
}

func (g *stubGuard) WithAdminLock(ctx context.Context, fn func(pgx.Tx) error) error {
	return fn(nil)
}

func (g *stubGuard) UserHoldsActiveAdminRole(ctx context.Context, tx pgx.Tx, userID int64) (bool, error) {
	return g.holdsAdmin, nil
}

func (g *stubGuard) EnsureAnotherActiveAdmin(ctx context.Context, tx pgx.Tx, excludeUserID int64, kind string) error {
	g.checked = append(g.checked, kind)
	if g.otherAdmins == 0 {
		return shared.NewInvariantError(kind)
	}
	return nil
}

type stubRepo struct {
	created      *User
	passwordHash string
	updated      bool
	rolesSet     []int64
	deactivated  []int64
	removedRoles [][2]int64
}

func (r *stubRepo) ListUsers(ctx context.Context) ([]User, error) { return nil, nil }

func (r *stubRepo) GetUser(ctx context.Context, id int64) (User, error) {
	return User{ID: id}, nil
}

func (r *stubRepo) CreateUser(ctx context.Context, email, name, passwordHash string, roleIDs []int64) (User, error) {
	r.passwordHash = passwordHash
	user := User{ID: 10, Email: email, Name: name, IsActive: true, RoleIDs: roleIDs}
	r.created = &user
	return user, nil
}

func (r *stubRepo) UpdateUserTx(ctx context.Context, tx pgx.Tx, id int64, email, name string, isActive bool) error {
	r.updated = true
	return nil
}

func (r *stubRepo) ReplaceUserRolesTx(ctx context.Context, tx pgx.Tx, userID int64, roleIDs []int64) error {
	r.rolesSet = roleIDs
	return nil
}

func (r *stubRepo) DeactivateUserTx(ctx context.Context, tx pgx.Tx, id int64) error {
	r.deactivated = append(r.deactivated, id)
	return nil
}

func (r *stubRepo) AssignRole(ctx context.Context, userID, roleID int64) error {
	return nil
}

func (r *stubRepo) RemoveRole(ctx context.Context, userID, roleID int64) error {
	r.removedRoles = append(r.removedRoles, [2]int64{userID, roleID})
	return nil
}

func (r *stubRepo) RemoveRoleTx(ctx context.Context, tx pgx.Tx, userID, roleID int64) error {
	r.removedRoles = append(r.removedRoles, [2]int64{userID, roleID})
	return nil
}

func invariantKind(t *testing.T, err error) string {
	t.Helper()
	var invariant *shared.InvariantError
	require.ErrorAs(t, err, &invariant)
	return invariant.Kind
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, &stubGuard{otherAdmins: 1})

	user, err := svc.CreateUser(context.Background(), "ana@example.org", "Ana", "s3cret", []int64{2})
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, user.RoleIDs)
	assert.NotEqual(t, "s3cret", repo.passwordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwordHash), []byte("s3cret")))
}

func TestDeactivateLastAdminRefused(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, &stubGuard{holdsAdmin: true, otherAdmins: 0})

	err := svc.DeactivateUser(context.Background(), 1)

	assert.Equal(t, shared.KindCannotDeactivateLastAdmin, invariantKind(t, err))
	assert.Empty(t, repo.deactivated, "refused mutation must not write")
}

func TestDeactivateWithAnotherAdmin(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, &stubGuard{holdsAdmin: true, otherAdmins: 1})

	require.NoError(t, svc.DeactivateUser(context.Background(), 1))
	assert.Equal(t, []int64{1}, repo.deactivated)
}

func TestDeactivateNonAdminSkipsInvariant(t *testing.T) {
	repo := &stubRepo{}
	guard := &stubGuard{holdsAdmin: false, otherAdmins: 0}
	svc := NewService(repo, guard)

	// Even with zero active admins elsewhere, a non-admin can be deactivated.
	require.NoError(t, svc.DeactivateUser(context.Background(), 5))
	assert.Equal(t, []int64{5}, repo.deactivated)
	assert.Empty(t, guard.checked)
}

func TestUpdateDemotingLastAdminRefused(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, &stubGuard{holdsAdmin: true, otherAdmins: 0})

	_, err := svc.UpdateUser(context.Background(), 1, UpdateParams{
		Email:    "ana@example.org",
		Name:     "Ana",
		IsActive: true,
		RoleIDs:  []int64{2},
	})

	assert.Equal(t, shared.KindMustHaveAdmin, invariantKind(t, err))
	assert.False(t, repo.updated, "refused mutation must not write")
}

func TestUpdateKeepingAdminRolePasses(t *testing.T) {
	repo := &stubRepo{}
	guard := &stubGuard{holdsAdmin: true, otherAdmins: 0}
	svc := NewService(repo, guard)

	_, err := svc.UpdateUser(context.Background(), 1, UpdateParams{
		Email:    "ana@example.org",
		Name:     "Ana",
		IsActive: true,
		RoleIDs:  []int64{1, 2},
	})

	require.NoError(t, err)
	assert.True(t, repo.updated)
	assert.Equal(t, []int64{1, 2}, repo.rolesSet)
	assert.Empty(t, guard.checked, "keeping the admin role needs no admin count")
}

func TestUpdateNonAdminSkipsInvariant(t *testing.T) {
	repo := &stubRepo{}
	guard := &stubGuard{holdsAdmin: false, otherAdmins: 0}
	svc := NewService(repo, guard)

	_, err := svc.UpdateUser(context.Background(), 5, UpdateParams{
		Email:    "bo@example.org",
		Name:     "Bo",
		IsActive: false,
	})

	require.NoError(t, err)
	assert.Empty(t, guard.checked)
}

func TestRemoveAdminRoleFromLastAdminRefused(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, &stubGuard{otherAdmins: 0})

	err := svc.RemoveRole(context.Background(), 1, 1)

	assert.Equal(t, shared.KindCannotRemoveLastAdmin, invariantKind(t, err))
	assert.Empty(t, repo.removedRoles)
}

func TestRemoveNonAdminRoleBypassesGuard(t *testing.T) {
	repo := &stubRepo{}
	guard := &stubGuard{otherAdmins: 0}
	svc := NewService(repo, guard)

	require.NoError(t, svc.RemoveRole(context.Background(), 1, 3))
	assert.Equal(t, [][2]int64{{1, 3}}, repo.removedRoles)
	assert.Empty(t, guard.checked)
}

func TestDemotesAdmin(t *testing.T) {
	assert.True(t, demotesAdmin(UpdateParams{IsActive: false, RoleIDs: []int64{1}}))
	assert.True(t, demotesAdmin(UpdateParams{IsActive: true, RoleIDs: []int64{2, 3}}))
	assert.False(t, demotesAdmin(UpdateParams{IsActive: true, RoleIDs: []int64{2, 1}}))
}
