package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS sets the fixed header trio on every response and answers
// preflight requests unconditionally. The allowed origin comes from
// config; there is no per-route variation.
func CORS(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Headers", "content-type")
		c.Header("Access-Control-Allow-Methods", "POST,OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"ok": true})
			return
		}

		c.Next()
	}
}
