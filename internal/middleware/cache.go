package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl marks successful responses as publicly cacheable for
// maxAgeSeconds. Error responses are left uncached.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", maxAgeSeconds)
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
		if c.Writer.Status() >= 400 && !c.Writer.Written() {
			c.Header("Cache-Control", "no-store")
		}
	}
}

// NoStore forbids caching, for answer keys and per-user data.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
