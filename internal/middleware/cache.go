package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/bloodbridge/api/internal/config"
)

// NewRedisCache returns a middleware that serves 200 responses for the
// configured methods out of Redis. It fronts the public read endpoints
// (district directory, recent requests, published blogs), which change
// rarely relative to how often browsers fetch them. Headers are stored
// alongside the body so a cache hit is byte-identical to the original
// response; an X-Cache header reports HIT or MISS.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKey(cfg, c)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodeCached(raw); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}

			cw := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflowed() {
				return nil
			}

			hdr := make(http.Header, len(c.Response().Header()))
			for k, vals := range c.Response().Header() {
				hdr[k] = append([]string(nil), vals...)
			}
			if payload, err := encodeCached(cw.status, hdr, cw.buf.Bytes()); err == nil {
				// Detached context: the client response is already on the
				// wire, a slow store must not hold the request open.
				_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
			}
			return nil
		}
	}
}

// teeWriter forwards the response to the client while keeping a bounded
// copy for the cache.
type teeWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if w.limit <= 0 || w.size < w.limit {
		w.buf.Write(b)
	}
	w.size += int64(len(b))
	return w.ResponseWriter.Write(b)
}

// overflowed reports whether the body outgrew the storable limit, in
// which case the captured copy is truncated and must not be cached.
func (w *teeWriter) overflowed() bool {
	return w.limit > 0 && w.size > w.limit
}

// cacheKey derives a stable Redis key from the route (and optionally
// method/query, per the configured strategy). The variable tail is
// hashed so query strings of any length produce fixed-size keys.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var tail string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		tail = c.Path()
	case "method_route":
		tail = r.Method + ":" + c.Path()
	case "method_route_query":
		tail = r.Method + ":" + c.Path() + "?" + r.URL.RawQuery
	default: // route_query
		tail = c.Path() + "?" + r.URL.RawQuery
	}
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}

// Cached payload layout: 4-byte status, 4-byte header length, header
// JSON, body.

func encodeCached(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodeCached(raw []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(raw) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(raw[0:4]))
	hlen := int(binary.BigEndian.Uint32(raw[4:8]))
	if hlen < 0 || 8+hlen > len(raw) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(raw[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, raw[8+hlen:], true
}
