package session

import (
	"context"
	"errors"
	"time"

	"github.com/fixgearlabs/fixgear-cart/pkg/logger"
	"github.com/fixgearlabs/fixgear-cart/pkg/redis"
	"github.com/fixgearlabs/fixgear-cart/pkg/util"
)

var (
	ErrTokenRevoked   = errors.New("session token has been revoked")
	ErrNotAccessToken = errors.New("not an access token")
)

// Resolver turns a bearer token into an identity: JWT validation plus a
// revocation check against Redis. Identity is the opaque user ID string.
type Resolver struct {
	secret string
}

func NewResolver(secret string) *Resolver {
	return &Resolver{secret: secret}
}

// Resolve validates the token and returns the identity it carries.
func (r *Resolver) Resolve(ctx context.Context, token string) (string, error) {
	claims, err := util.ValidateToken(token, r.secret)
	if err != nil {
		return "", err
	}
	if claims.Type != "access" {
		return "", ErrNotAccessToken
	}

	if redis.GetClient() != nil {
		revoked, err := redis.IsTokenRevoked(ctx, token)
		if err != nil {
			logger.Error("Failed to check token revocation, rejecting session", err, nil)
			return "", err
		}
		if revoked {
			return "", ErrTokenRevoked
		}
	}

	return claims.UserID, nil
}

// Revoke marks the token revoked for the remainder of its lifetime, so a
// logged-out session can no longer resolve.
func (r *Resolver) Revoke(ctx context.Context, token string) error {
	claims, err := util.ValidateToken(token, r.secret)
	if err != nil {
		// Already invalid or expired; nothing left to revoke.
		return nil
	}

	if redis.GetClient() == nil {
		logger.Warn("Redis unavailable, token revocation skipped", nil)
		return nil
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}
	return redis.RevokeToken(ctx, token, remaining)
}
