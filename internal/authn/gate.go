package authn

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"github.com/amparo-cms/amparo-cms/internal/platform/httpx"
	"github.com/amparo-cms/amparo-cms/internal/shared"
	"github.com/amparo-cms/amparo-cms/internal/token"
)

// UserSource loads the live user record for a verified identity.
type UserSource interface {
	FindUserWithActiveRoles(ctx context.Context, email string) (*User, error)
}

// RevocationChecker looks up explicitly invalidated tokens.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenString string) (bool, error)
}

// Gate authenticates requests: it extracts the bearer token, checks
// revocation, verifies the signature, then re-reads the subject's live status
// and roles from the source of truth. The roles embedded in the token are
// deliberately ignored here so that a role deactivation takes effect on the
// very next request without re-authentication.
type Gate struct {
	Codec       *token.Codec
	Users       UserSource
	Revocations RevocationChecker
	Logger      *slog.Logger
}

// Require wraps next so it only runs for an authenticated, active subject
// with at least one active role. The rehydrated subject is attached to the
// request context.
func (g Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			httpx.RespondError(w, shared.ErrTokenRequired)
			return
		}

		revoked, err := g.Revocations.IsRevoked(r.Context(), raw)
		if err != nil {
			g.logError("revocation lookup", err)
			httpx.RespondError(w, err)
			return
		}
		if revoked {
			httpx.RespondError(w, shared.ErrTokenRevoked)
			return
		}

		claims, err := g.Codec.Verify(raw)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrExpired):
				httpx.RespondError(w, shared.ErrTokenExpired)
			case errors.Is(err, token.ErrMalformed):
				httpx.RespondError(w, shared.ErrTokenInvalid)
			default:
				g.logError("verify token", err)
				httpx.RespondError(w, err)
			}
			return
		}

		user, err := g.Users.FindUserWithActiveRoles(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				httpx.RespondError(w, shared.ErrUserNotFound)
				return
			}
			g.logError("load user", err)
			httpx.RespondError(w, err)
			return
		}
		if !user.IsActive {
			httpx.RespondError(w, shared.ErrUserInactive)
			return
		}
		if len(user.Roles) == 0 {
			httpx.RespondError(w, shared.ErrNoActiveRoles)
			return
		}

		sub := &shared.Subject{
			ID:         user.ID,
			Email:      user.Email,
			Name:       user.Name,
			Roles:      user.Roles,
			ClaimRoles: claims.Roles,
			Token:      raw,
		}
		ctx := shared.ContextWithSubject(r.Context(), sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g Gate) logError(msg string, err error) {
	if g.Logger != nil {
		g.Logger.Error(msg, slog.Any("error", err))
	}
}

// bearerToken reads the credential from the authorization header. A "Bearer"
// scheme prefix is accepted and stripped.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
