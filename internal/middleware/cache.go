package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hospital-portal/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 {
		cw.buf.Write(b)
	} else if remain := cw.limit - cw.size; remain > 0 {
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// ResponseCache keeps successful responses in Redis.  Keys are grouped per
// route so a write to a resource can drop every cached variant of it.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log *slog.Logger
}

// NewResponseCache returns a cache; with caching disabled or no Redis client
// its middleware is a pass-through and Invalidate a no-op.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log *slog.Logger) *ResponseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return &ResponseCache{cfg: cfg, rdb: rdb, log: log}
}

func (rc *ResponseCache) enabled() bool { return rc != nil && rc.cfg.Enabled && rc.rdb != nil }

// routePrefix is the key namespace of one route, e.g. "cache:/users".
func (rc *ResponseCache) routePrefix(route string) string {
	return rc.cfg.Prefix + ":" + route
}

// keyFor builds a stable cache key honoring the configured strategy.
func (rc *ResponseCache) keyFor(c echo.Context) string {
	r := c.Request()
	var tail string
	switch strings.ToLower(rc.cfg.KeyStrategy) {
	case "route":
		tail = ""
	case "method_route":
		tail = r.Method
	case "method_route_query":
		tail = r.Method + "?" + r.URL.RawQuery
	default: // "route_query"
		tail = "?" + r.URL.RawQuery
	}
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", rc.routePrefix(c.Path()), sum[:])
}

// Invalidate drops every cached response of route.
func (rc *ResponseCache) Invalidate(ctx context.Context, route string) {
	if !rc.enabled() {
		return
	}
	iter := rc.rdb.Scan(ctx, 0, rc.routePrefix(route)+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		rc.log.Warn("cache: scan failed", "route", route, "err", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
		rc.log.Warn("cache: invalidate failed", "route", route, "err", err)
	}
}

// Middleware serves cached responses and stores fresh 200s, headers
// included, so clients see identical bytes either way.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	if !rc.enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	maxBody := int64(rc.cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := rc.keyFor(c)

			if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if perRequestHeader(k) {
							continue
						}
						c.Response().Header()[k] = vals
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
				return nil
			}
			hdr := c.Response().Header().Clone()
			for k := range hdr {
				if perRequestHeader(k) {
					delete(hdr, k)
				}
			}
			if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
				if err := rc.rdb.SetEx(context.Background(), key, payload, rc.cfg.TTL).Err(); err != nil {
					rc.log.Warn("cache: store failed", "key", key, "err", err)
				}
			}
			return nil
		}
	}
}

// perRequestHeader reports headers that describe one exchange rather than
// the cached resource.
func perRequestHeader(k string) bool {
	switch http.CanonicalHeaderKey(k) {
	case echo.HeaderContentLength, echo.HeaderXRequestID, "X-Cache":
		return true
	}
	return false
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}
