package cache

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// KeyFunc derives the cache key for a request; ok=false bypasses the cache.
type KeyFunc func(c *gin.Context) (key string, ok bool)

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware serves GET responses from store and stores successful ones for
// ttl. A response is not stored if any invalidation ran while it was being
// rendered. Cache failures are logged and never fail the request.
func Middleware(store Store, keyFn KeyFunc, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		key, ok := keyFn(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		if body, hit, err := store.Get(ctx, key); err != nil {
			slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		} else if hit {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		gen, genErr := store.Generation(ctx)
		if genErr != nil {
			slog.WarnContext(ctx, "cache generation read failed", "key", key, "error", genErr)
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Header("X-Cache", "MISS")
		c.Next()

		if genErr != nil || c.Writer.Status() != http.StatusOK {
			return
		}
		stored, err := store.SetIfGeneration(ctx, key, rec.body.Bytes(), ttl, gen)
		if err != nil {
			slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
			return
		}
		if !stored {
			slog.DebugContext(ctx, "cache write skipped after concurrent invalidation", "key", key)
		}
	}
}
