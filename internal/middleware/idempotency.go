package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// IdempotencyKeyHeader is the HTTP header carrying the client's idempotency key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyPrefix namespaces replayable response keys.
	IdempotencyKeyPrefix = "idempotency:"
	// DefaultIdempotencyTTL is how long a response stays replayable.
	DefaultIdempotencyTTL = 5 * time.Minute
)

// replayableHeaders are copied onto a replayed response.
var replayableHeaders = []string{"Content-Type", "Location"}

// storedResponse is a successful response kept for replay.
type storedResponse struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`
}

// Idempotency replays the stored response of a previous POST, PATCH or PUT
// carrying the same Idempotency-Key, credentials, method, path and body.
// Only 2xx responses are stored. A nil store disables replay.
func Idempotency(store *IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		cacheKey := idempotencyCacheKey(key, c.Request)
		if resp, ok := store.get(cacheKey); ok {
			for k, v := range resp.Headers {
				c.Header(k, v)
			}
			c.Header("X-Idempotency-Replayed", "true")
			c.Data(resp.StatusCode, resp.Headers["Content-Type"], resp.Body)
			c.Abort()
			return
		}

		writer := &capturingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		resp := storedResponse{
			StatusCode: status,
			Headers:    make(map[string]string, len(replayableHeaders)),
			Body:       writer.body.Bytes(),
		}
		for _, h := range replayableHeaders {
			if v := writer.Header().Get(h); v != "" {
				resp.Headers[h] = v
			}
		}
		store.put(cacheKey, resp)
		zerolog.Ctx(c.Request.Context()).Debug().Str("key", cacheKey).Msg("Stored idempotent response")
	}
}

// idempotencyCacheKey digests the client key with the caller's credentials,
// the method, path and body. A replay therefore needs the same credentials
// as the original request.
func idempotencyCacheKey(idempotencyKey string, req *http.Request) string {
	h := sha256.New()
	for _, part := range []string{
		idempotencyKey,
		req.Header.Get("Authorization"),
		req.Header.Get(APIKeyHeader),
		req.Method,
		req.URL.Path,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}

	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(body))
		h.Write(body)
	}
	return IdempotencyKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// capturingWriter tees the response body.
type capturingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
