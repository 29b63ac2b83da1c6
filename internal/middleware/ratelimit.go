package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hospital-portal/internal/config"
)

// takeScript refills the bucket stored at KEYS[1] and takes one token in a
// single round trip.  ARGV: now_ms, capacity, refill, interval_ms, ttl_s.
// Reply: {allowed, tokens_left, wait_ms}.
var takeScript = redis.NewScript(`
local now, cap, refill, every, ttl =
	tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local h = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill_ms')
local tokens, last = tonumber(h[1]), tonumber(h[2])
if not tokens or not last then
	tokens, last = cap, now
end

if every > 0 and refill > 0 and now > last then
	local steps = math.floor((now - last) / every)
	if steps > 0 then
		tokens = math.min(cap, tokens + steps * refill)
		last = last + steps * every
	end
end

local ok, wait = 0, 0
if tokens >= 1 then
	ok, tokens = 1, tokens - 1
else
	wait = math.max(0, every - (now - last))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_refill_ms', last)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

// Decision is the outcome of one Take.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// TokenBucket is a Redis token bucket shared by every replica.  It sits in
// front of /login and /forgotpassword so password guessing and reset-mail
// flooding are bounded per client.
type TokenBucket struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	log *slog.Logger
	now func() time.Time

	// OnBlocked, when set, is called with the route of every rejected request.
	OnBlocked func(route string)
}

// NewTokenBucket returns a limiter; with rate limiting disabled or no Redis
// client its middleware lets everything through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *slog.Logger) *TokenBucket {
	return &TokenBucket{cfg: cfg, rdb: rdb, log: log, now: time.Now}
}

func (tb *TokenBucket) enabled() bool { return tb != nil && tb.cfg.Enabled && tb.rdb != nil }

// Take consumes one token from the bucket at key.
func (tb *TokenBucket) Take(ctx context.Context, key string) (Decision, error) {
	res, err := takeScript.Run(ctx, tb.rdb, []string{key},
		tb.now().UnixMilli(),
		tb.cfg.Capacity,
		tb.cfg.RefillTokens,
		tb.cfg.RefillInterval.Milliseconds(),
		int64(tb.cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected reply %v", res)
	}
	return Decision{
		Allowed:    res[0] == 1,
		Remaining:  res[1],
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// Middleware rejects requests with 429 once the client's bucket is empty.
// Redis failures are logged and the request is let through.
func (tb *TokenBucket) Middleware() echo.MiddlewareFunc {
	if !tb.enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(tb.cfg, c)
			d, err := tb.Take(c.Request().Context(), key)
			if err != nil {
				tb.log.Warn("ratelimit: redis error", "key", key, "err", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(tb.cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			if tb.cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if d.Allowed {
				return next(c)
			}

			secs := int((d.RetryAfter + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.Itoa(secs))
			if tb.OnBlocked != nil {
				tb.OnBlocked(c.Path())
			}
			tb.log.Info("ratelimit: blocked", "key", key, "retry_after", d.RetryAfter)
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "Too many requests, try again later",
				"retry_after": secs,
			})
		}
	}
}

// rateKey namespaces the bucket by client address, caller and route as the
// configured strategy asks.  Anonymous callers share the "anon" user slot.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := currentUserID(c)
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	strategy := strings.ToLower(cfg.KeyStrategy)
	if strategy == "" {
		strategy = "ip_user_route"
	}
	for _, part := range strings.Split(strategy, "_") {
		switch part {
		case "ip":
			parts = append(parts, "ip", ip)
		case "user":
			parts = append(parts, "user", uid)
		case "route":
			parts = append(parts, "route", route)
		}
	}
	if len(parts) == 1 {
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}
