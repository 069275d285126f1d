package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Revoker denylists token IDs in redis until the token would have expired
// anyway. Logout is a forced server-side invalidation: once the jti is in
// the denylist the middleware answers 401 for that token everywhere.
type Revoker struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRevoker(rdb *redis.Client, logger *zap.Logger) *Revoker {
	return &Revoker{
		rdb:    rdb,
		logger: logger,
	}
}

func revokeKey(tokenID string) string {
	return fmt.Sprintf("revoked:%s", tokenID)
}

// Revoke marks a token ID as dead for the remainder of its lifetime.
func (r *Revoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired, nothing to deny.
		return nil
	}
	return r.rdb.Set(ctx, revokeKey(tokenID), 1, ttl).Err()
}

// IsRevoked reports whether a token ID has been denylisted. When redis is
// unreachable the check fails open: a flaky cache must not log everyone out.
func (r *Revoker) IsRevoked(ctx context.Context, tokenID string) bool {
	if tokenID == "" {
		return false
	}

	n, err := r.rdb.Exists(ctx, revokeKey(tokenID)).Result()
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("Redis revocation check failed, allowing token",
				zap.String("token_id", tokenID),
				zap.Error(err),
			)
		}
		return false
	}
	return n > 0
}
