package config

// Redis backs the login rate limiter, the user listing cache and the optional
// single-use marker for reset tokens.  All three degrade to "off" when the
// server is unreachable at startup, so NewRedisClient returns nil instead of
// failing the process.

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection parameters for Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// LoadRedisConfig reads REDIS_HOST/REDIS_PORT (or REDIS_ADDR), REDIS_PASSWORD,
// REDIS_DB and REDIS_TLS.
func LoadRedisConfig() RedisConfig {
	addr := getenv("REDIS_ADDR", "")
	if host, port := getenv("REDIS_HOST", ""), getenv("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	tlsEnv := getenv("REDIS_TLS", "")
	return RedisConfig{
		Addr:     addr,
		Password: getenv("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
		TLS:      strings.EqualFold(tlsEnv, "true") || tlsEnv == "1",
	}
}

// NewRedisClient instantiates a Redis client and pings it with a short
// timeout.  The returned client is nil if the server cannot be reached.
func NewRedisClient(rc RedisConfig) *redis.Client {
	var tlsConf *tls.Config
	if rc.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      rc.Addr,
		Password:  rc.Password,
		DB:        rc.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
