package authz

import (
	"context"
	"net/http"
	"strings"

	"log/slog"

	"github.com/amparo-cms/amparo-cms/internal/platform/httpx"
	"github.com/amparo-cms/amparo-cms/internal/shared"
)

// PermissionSource loads live role-window permission rows.
type PermissionSource interface {
	FindActiveRoleWindowPermissions(ctx context.Context, roleIDs []int64, window WindowRef) ([]PermissionSet, error)
}

// Middleware wires authorization helpers for HTTP handlers. Requests must
// have passed the authentication gate first.
type Middleware struct {
	Source PermissionSource
	Logger *slog.Logger
}

// RequireRoles ensures the subject holds at least one of the allowed role
// names. The check runs against the role list embedded in the token, with no
// database round-trip; it is slightly staler than RequireWindow by design.
func (m Middleware) RequireRoles(names ...string) func(http.Handler) http.Handler {
	allowed := normalizeRoleNames(names)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := shared.SubjectFromContext(r.Context())
			if sub == nil {
				httpx.RespondError(w, shared.ErrTokenRequired)
				return
			}
			for _, held := range sub.ClaimRoles {
				if _, ok := allowed[strings.ToLower(held)]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, shared.ErrInsufficientRole)
		})
	}
}

// RequireWindow ensures the subject's currently active roles, combined with
// logical OR, grant every required action on the referenced window. The rows
// are re-read from the source of truth on every request so a role or window
// deactivated after token issuance stops granting immediately.
func (m Middleware) RequireWindow(window WindowRef, actions ...Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := shared.SubjectFromContext(r.Context())
			if sub == nil {
				httpx.RespondError(w, shared.ErrTokenRequired)
				return
			}
			sets, err := m.Source.FindActiveRoleWindowPermissions(r.Context(), sub.RoleIDs(), window)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("window permission lookup",
						slog.String("window", window.String()), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			if len(sets) == 0 {
				httpx.RespondError(w, shared.ErrNoWindowAccess)
				return
			}
			combined := Combine(sets)
			for _, action := range actions {
				if !combined.Allows(action) {
					httpx.RespondError(w, shared.ErrActionNotAllowed)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func normalizeRoleNames(names []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(strings.ToLower(n))
		if n == "" {
			continue
		}
		allowed[n] = struct{}{}
	}
	return allowed
}
