package api

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/Baryonic/aida/pkg/circuitbreaker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Cache.Get for absent keys.
var ErrCacheMiss = errors.New("cache miss")

const cacheOpTimeout = 500 * time.Millisecond

// Cache stores rendered response bodies.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (r *RedisCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, body, ttl).Err()
}

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func cacheKey(prefix string, r *http.Request) string {
	sum := sha1.Sum([]byte(r.URL.Path + "?" + r.URL.RawQuery))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// responseCache serves GET responses from cache and stores fresh 200
// bodies for ttl. Cache calls go through breaker; while it is open the
// handler runs without touching the cache at all.
func (s *Server) responseCache(cache Cache, breaker *circuitbreaker.CircuitBreaker, prefix string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(prefix, c.Request)

		var body []byte
		err := breaker.Execute(func() error {
			ctx, cancel := context.WithTimeout(c.Request.Context(), cacheOpTimeout)
			defer cancel()

			b, err := cache.Get(ctx, key)
			if errors.Is(err, ErrCacheMiss) {
				return nil
			}
			body = b
			return err
		}, nil)
		if err != nil {
			if !errors.Is(err, circuitbreaker.ErrOpen) {
				s.log.Warn("response cache unavailable", "error", err)
			}
			c.Next()
			return
		}

		if body != nil {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		cw := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		c.Header("X-Cache", "MISS")
		c.Next()

		if cw.Status() != http.StatusOK || cw.buf.Len() == 0 {
			return
		}
		_ = breaker.Execute(func() error {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), cacheOpTimeout)
			defer cancel()
			return cache.Set(ctx, key, cw.buf.Bytes(), ttl)
		}, nil)
	}
}
