package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/guttosm/hackathon-service/internal/cache"
)

// CacheProvider makes p reachable from the request context, so handlers and
// services can use cache.UseCache and cache.FromContext.
func CacheProvider(p *cache.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(cache.WithProvider(c.Request.Context(), p))
		c.Next()
	}
}
