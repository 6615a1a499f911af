package authn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// minRevocationTTL keeps a revocation record around briefly even when the
// token is already at (or past) expiry, covering clock skew between nodes.
const minRevocationTTL = time.Minute

// RevocationStore keeps explicitly invalidated tokens in redis. Presence of a
// token implies rejection regardless of signature validity.
type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore constructs a RevocationStore.
func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke records the raw token string until its remaining lifetime runs out.
func (s *RevocationStore) Revoke(ctx context.Context, tokenString string, remaining time.Duration) error {
	if remaining < minRevocationTTL {
		remaining = minRevocationTTL
	}
	if err := s.client.Set(ctx, s.key(tokenString), "1", remaining).Err(); err != nil {
		return fmt.Errorf("authn: record revoked token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the raw token string has been revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	if err := s.client.Get(ctx, s.key(tokenString)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("authn: revocation lookup: %w", err)
	}
	return true, nil
}

func (s *RevocationStore) key(tokenString string) string {
	return "revoked:" + tokenString
}
