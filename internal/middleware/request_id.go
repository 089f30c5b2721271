// Package middleware provides the gin middleware of the hackathon API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/guttosm/hackathon-service/internal/logger"
)

// RequestIDHeader is the HTTP header carrying the request ID.
const RequestIDHeader = "X-Request-ID"

// ContextKey type for gin context keys to avoid collisions.
type ContextKey string

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey ContextKey = "request_id"
)

// RequestID ensures each request has an ID. A client-provided X-Request-ID
// is reused, otherwise a UUID v4 is generated. The ID is also attached to a
// request-scoped zerolog logger reachable with zerolog.Ctx.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(string(RequestIDKey), requestID)
		c.Header(RequestIDHeader, requestID)

		l := logger.Logger().With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		c.Next()
	}
}

// GetRequestID retrieves the request ID from the gin context.
func GetRequestID(c *gin.Context) string {
	return c.GetString(string(RequestIDKey))
}
