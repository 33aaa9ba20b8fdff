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
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/config"
)

// NewRedisCache caches successful responses of public catalog routes in
// Redis.  Headers are stored with the body so a hit replays the original
// response.  Requests carrying credentials bypass the cache entirely.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	rc := &responseCache{
		rdb: rdb,
		ttl: cfg.TTL,
		log: logrus.WithField("component", "cache"),
	}
	if rc.ttl <= 0 {
		rc.ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if !cfg.Methods[strings.ToUpper(r.Method)] || r.Header.Get(echo.HeaderAuthorization) != "" {
				return next(c)
			}
			key := cacheKeyFrom(cfg, c)
			if rc.replay(c, key) {
				return nil
			}

			rec := &recorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status == http.StatusOK && !rec.truncated {
				rc.store(key, c.Response().Header(), rec.buf.Bytes())
			}
			return nil
		}
	}
}

type responseCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Entry
}

// replay writes a cached response and reports whether there was one.
func (rc *responseCache) replay(c echo.Context, key string) bool {
	bs, err := rc.rdb.Get(c.Request().Context(), key).Bytes()
	if err != nil {
		if err != redis.Nil {
			rc.log.WithError(err).Debug("cache lookup failed")
		}
		return false
	}
	status, hdr, body, ok := decodePayload(bs)
	if !ok {
		return false
	}
	out := c.Response().Header()
	for k, vals := range hdr {
		if strings.EqualFold(k, echo.HeaderContentLength) || strings.EqualFold(k, "X-Cache") {
			continue
		}
		for _, v := range vals {
			out.Add(k, v)
		}
	}
	out.Set("X-Cache", "HIT")
	c.Response().WriteHeader(status)
	_, _ = c.Response().Write(body)
	return true
}

// store runs detached from the request context so a client hanging up
// does not abort the write.
func (rc *responseCache) store(key string, header http.Header, body []byte) {
	payload, err := encodePayload(http.StatusOK, header.Clone(), body)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rc.rdb.SetEx(ctx, key, payload, rc.ttl).Err(); err != nil {
		rc.log.WithError(err).WithField("key", key).Warn("cache store failed")
	}
}

// recorder tees the response body into buf up to limit bytes.
type recorder struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.truncated {
		if r.limit > 0 && int64(r.buf.Len()+len(b)) > r.limit {
			r.truncated = true
			r.buf.Reset()
		} else {
			r.buf.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// cacheKeyFrom hashes the parts of the request named by KeyStrategy.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", c.Path()}
	case "method_route":
		parts = []string{"method", r.Method, "route", c.Path()}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
	default: // route_query
		parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
	}
	if strings.Contains(c.Path(), ":") {
		// parameterised routes differ by their concrete path
		parts = append(parts, "path", r.URL.Path)
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	out = append(out, hdrJSON...)
	return append(out, body...), nil
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

// ShowtimeCachePrefix is the key space for responses that embed seat
// counters.  It sits under prefix, so purging prefix clears it too.
func ShowtimeCachePrefix(prefix string) string { return prefix + ":showtimes" }

// PurgeCache drops every cached response under prefix.  Catalog writes
// call it so readers do not wait out the TTL.
func PurgeCache(ctx context.Context, rdb *redis.Client, prefix string) error {
	if rdb == nil {
		return nil
	}
	iter := rdb.Scan(ctx, 0, prefix+":*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 200 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return rdb.Del(ctx, keys...).Err()
	}
	return nil
}
