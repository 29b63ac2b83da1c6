package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetGuard remembers consumed reset tokens so a link works only once.
type ResetGuard interface {
	// Claim marks token as consumed for ttl.  It reports false when the token
	// was already claimed.
	Claim(ctx context.Context, token string, ttl time.Duration) (bool, error)
	// Release undoes a Claim whose password update failed.
	Release(ctx context.Context, token string) error
}

// RedisResetGuard stores a SHA-256 of each consumed token under Prefix.
type RedisResetGuard struct {
	RDB    *redis.Client
	Prefix string
}

func NewRedisResetGuard(rdb *redis.Client) *RedisResetGuard {
	return &RedisResetGuard{RDB: rdb, Prefix: "reset:used:"}
}

func (g *RedisResetGuard) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return g.Prefix + hex.EncodeToString(sum[:])
}

func (g *RedisResetGuard) Claim(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	return g.RDB.SetNX(ctx, g.key(token), 1, ttl).Result()
}

func (g *RedisResetGuard) Release(ctx context.Context, token string) error {
	return g.RDB.Del(ctx, g.key(token)).Err()
}
