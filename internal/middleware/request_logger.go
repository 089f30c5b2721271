package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CacheStatusHeader reports whether a read was a cache HIT, STALE or MISS.
const CacheStatusHeader = "X-Cache"

// RequestLogger logs one structured line per request. The level follows
// the status code.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		l := zerolog.Ctx(c.Request.Context())

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = l.Error()
		case status >= 400:
			event = l.Warn()
		default:
			event = l.Info()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Int("status_code", status).
			Dur("duration", time.Since(start)).
			Str("ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent())
		if cs := c.Writer.Header().Get(CacheStatusHeader); cs != "" {
			event.Str("cache", cs)
		}
		if subject := c.GetString(SubjectKey); subject != "" {
			event.Str("subject", subject)
		}
		event.Msg("HTTP request")
	}
}
