package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/amparo-cms/amparo-cms/internal/authn"
	"github.com/amparo-cms/amparo-cms/internal/shared"
	"github.com/amparo-cms/amparo-cms/internal/token"
)

// UserFinder loads account rows with their active roles.
type UserFinder interface {
	FindUserWithActiveRoles(ctx context.Context, email string) (*authn.User, error)
}

// Revoker records invalidated credentials.
type Revoker interface {
	Revoke(ctx context.Context, tokenString string, remaining time.Duration) error
}

// Service wraps authentication business rules.
type Service struct {
	users       UserFinder
	codec       *token.Codec
	revocations Revoker
}

// NewService constructs a new Service.
func NewService(users UserFinder, codec *token.Codec, revocations Revoker) *Service {
	return &Service{users: users, codec: codec, revocations: revocations}
}

// Login validates email/password credentials and issues a signed credential
// carrying the identity and a snapshot of the active role names.
func (s *Service) Login(ctx context.Context, email, password string) (Grant, error) {
	user, err := s.users.FindUserWithActiveRoles(ctx, email)
	if err != nil {
		return Grant{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return Grant{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Grant{}, shared.ErrInvalidCredentials
	}
	if len(user.Roles) == 0 {
		return Grant{}, shared.ErrNoActiveRoles
	}
	signed, err := s.codec.Sign(user.Email, user.Name, user.RoleNames())
	if err != nil {
		return Grant{}, err
	}
	return Grant{Token: signed, ID: user.ID, Email: user.Email, Name: user.Name, Roles: user.Roles}, nil
}

// Logout records the presented credential as revoked for its remaining
// lifetime, so it is rejected even though the signature stays valid.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	remaining := time.Duration(0)
	if claims, err := s.codec.Verify(tokenString); err == nil {
		remaining = claims.Remaining(time.Now())
	}
	return s.revocations.Revoke(ctx, tokenString, remaining)
}
