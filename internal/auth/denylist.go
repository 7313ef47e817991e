package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/volunteer-connect/backend/pkg/redis"
)

const denylistPrefix = "auth:revoked:"

// Denylist records revoked token IDs in Redis until the token would have expired.
type Denylist struct {
	rdb *redis.Client
	now func() time.Time
}

// NewDenylist creates a denylist backed by rdb.
func NewDenylist(rdb *redis.Client) *Denylist {
	return &Denylist{rdb: rdb, now: time.Now}
}

// Revoke marks the token ID as revoked until expiresAt. Already expired tokens are ignored.
func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.rdb.Set(ctx, denylistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token ID has been revoked.
func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.rdb.Exists(ctx, denylistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
