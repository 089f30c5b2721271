package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// uncompressedPaths skips health checks, whose bodies are a few bytes, and the
// Prometheus scrape, which negotiates its own encoding.
var uncompressedPaths = []string{"/metrics", "/healthz", "/readyz"}

// Compression gzips catalog and admin responses for clients that accept it.
// Listings are repetitive JSON, so the fastest level already shrinks them well.
func Compression(extraExcluded ...string) gin.HandlerFunc {
	excluded := append(append([]string{}, uncompressedPaths...), extraExcluded...)
	return gzip.Gzip(gzip.BestSpeed, gzip.WithExcludedPaths(excluded))
}
