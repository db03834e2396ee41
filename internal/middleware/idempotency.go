package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
)

const (
	idempotencyHeader = "Idempotency-Key"

	// IdempotencyTTL is how long a response is replayed for the same key.
	IdempotencyTTL = 24 * time.Hour
)

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	Headers    http.Header     `json:"headers"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// NewIdempotencyCache creates the response cache used by IdempotencyMiddleware.
func NewIdempotencyCache() *gocache.Cache {
	return gocache.New(IdempotencyTTL, time.Hour)
}

// IdempotencyMiddleware replays the stored response when a POST or PUT
// repeats an Idempotency-Key, so a retried booking is not charged twice.
func IdempotencyMiddleware(responses *gocache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" || responses == nil {
			c.Next()
			return
		}
		cacheKey := c.Request.Method + " " + c.FullPath() + " " + key

		if v, ok := responses.Get(cacheKey); ok {
			cached := v.(*cachedResponse)
			for k, vals := range cached.Headers {
				for _, val := range vals {
					c.Header(k, val)
				}
			}
			c.Header("Idempotent-Replayed", "true")
			c.Data(cached.StatusCode, "application/json", cached.Body)
			c.Abort()
			return
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// Server errors are not replayed; the client should be able to retry them.
		if status := c.Writer.Status(); status >= 200 && status < 500 {
			responses.SetDefault(cacheKey, &cachedResponse{
				StatusCode: status,
				Body:       append(json.RawMessage(nil), w.body.Bytes()...),
				Headers:    extractResponseHeaders(c),
			})
		}
	}
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
