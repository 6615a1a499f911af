package authn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amparo-cms/amparo-cms/internal/platform/httpx"
	"github.com/amparo-cms/amparo-cms/internal/shared"
	"github.com/amparo-cms/amparo-cms/internal/token"
)

type stubUserSource struct {
	user *User
	err  error
}

func (s stubUserSource) FindUserWithActiveRoles(ctx context.Context, email string) (*User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type stubRevocations struct {
	revoked bool
	err     error
}

func (s stubRevocations) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	return s.revoked, s.err
}

func activeUser() *User {
	return &User{
		ID:       1,
		Email:    "ana@example.org",
		Name:     "Ana",
		IsActive: true,
		Roles:    []shared.RoleMembership{{ID: 1, Name: "administrator"}},
	}
}

func testGate(users UserSource, revocations RevocationChecker) Gate {
	return Gate{
		Codec:       token.NewCodec("unit-test-secret", time.Hour),
		Users:       users,
		Revocations: revocations,
	}
}

func runGate(t *testing.T, g Gate, authorization string) (*httptest.ResponseRecorder, *shared.Subject) {
	t.Helper()
	var got *shared.Subject
	h := g.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res, got
}

func problemDetail(t *testing.T, res *httptest.ResponseRecorder) string {
	t.Helper()
	var p httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &p))
	return p.Detail
}

func TestGateMissingToken(t *testing.T) {
	res, _ := runGate(t, testGate(stubUserSource{}, stubRevocations{}), "")

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "token required", problemDetail(t, res))
}

func TestGateRevokedToken(t *testing.T) {
	g := testGate(stubUserSource{user: activeUser()}, stubRevocations{revoked: true})
	signed, err := g.Codec.Sign("ana@example.org", "Ana", nil)
	require.NoError(t, err)

	res, _ := runGate(t, g, "Bearer "+signed)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "token invalid (logged out)", problemDetail(t, res))
}

func TestGateExpiredToken(t *testing.T) {
	g := testGate(stubUserSource{user: activeUser()}, stubRevocations{})
	signed, err := token.NewCodec("unit-test-secret", -time.Minute).Sign("ana@example.org", "Ana", nil)
	require.NoError(t, err)

	res, _ := runGate(t, g, "Bearer "+signed)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "token expired", problemDetail(t, res))
}

func TestGateMalformedToken(t *testing.T) {
	res, _ := runGate(t, testGate(stubUserSource{}, stubRevocations{}), "Bearer not-a-token")

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "token invalid", problemDetail(t, res))
}

func TestGateUserNotFound(t *testing.T) {
	g := testGate(stubUserSource{err: shared.ErrNotFound}, stubRevocations{})
	signed, err := g.Codec.Sign("gone@example.org", "Gone", nil)
	require.NoError(t, err)

	res, _ := runGate(t, g, "Bearer "+signed)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "user not found", problemDetail(t, res))
}

func TestGateInactiveUser(t *testing.T) {
	user := activeUser()
	user.IsActive = false
	g := testGate(stubUserSource{user: user}, stubRevocations{})
	signed, err := g.Codec.Sign("ana@example.org", "Ana", nil)
	require.NoError(t, err)

	res, _ := runGate(t, g, "Bearer "+signed)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "user inactive", problemDetail(t, res))
}

func TestGateNoActiveRoles(t *testing.T) {
	user := activeUser()
	user.Roles = nil
	g := testGate(stubUserSource{user: user}, stubRevocations{})
	signed, err := g.Codec.Sign("ana@example.org", "Ana", nil)
	require.NoError(t, err)

	res, _ := runGate(t, g, "Bearer "+signed)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "user has no active roles", problemDetail(t, res))
}

func TestGateAttachesRehydratedSubject(t *testing.T) {
	g := testGate(stubUserSource{user: activeUser()}, stubRevocations{})
	// The token carries a stale role snapshot; the live roles must win.
	signed, err := g.Codec.Sign("ana@example.org", "Ana", []string{"operator"})
	require.NoError(t, err)

	res, sub := runGate(t, g, "Bearer "+signed)

	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, sub)
	assert.Equal(t, int64(1), sub.ID)
	assert.Equal(t, "ana@example.org", sub.Email)
	assert.Equal(t, []int64{1}, sub.RoleIDs())
	assert.True(t, sub.HasRole(1))
	assert.Equal(t, []string{"operator"}, sub.ClaimRoles)
	assert.Equal(t, signed, sub.Token)
}

func TestGateAcceptsRawToken(t *testing.T) {
	g := testGate(stubUserSource{user: activeUser()}, stubRevocations{})
	signed, err := g.Codec.Sign("ana@example.org", "Ana", nil)
	require.NoError(t, err)

	// No "Bearer" scheme prefix: the raw credential is accepted as-is.
	res, _ := runGate(t, g, signed)

	assert.Equal(t, http.StatusOK, res.Code)
}

func TestBearerTokenParsing(t *testing.T) {
	for header, want := range map[string]string{
		"Bearer abc":   "abc",
		"bearer abc":   "abc",
		"Bearer  abc ": "abc",
		"abc":          "abc",
		"":             "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, bearerToken(req), "header %q", header)
	}
}
