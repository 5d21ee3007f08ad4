package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker is a token denylist backed by Redis. Soft-deleting an identity
// writes its id here for the token lifetime, so outstanding tokens stop
// working immediately instead of at expiry.
// Key format: revoked:<identity_id>
type Revoker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRevoker creates a Revoker. ttl should match the token lifetime; entries
// older than that guard nothing since the tokens have expired anyway.
func NewRevoker(client *redis.Client, ttl time.Duration) *Revoker {
	return &Revoker{client: client, ttl: ttl}
}

// Revoke denylists every outstanding token for the identity.
func (r *Revoker) Revoke(ctx context.Context, id string) error {
	if err := r.client.Set(ctx, r.key(id), "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

// IsRevoked reports whether the identity's tokens have been denylisted.
func (r *Revoker) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (r *Revoker) key(id string) string {
	return "revoked:" + id
}
