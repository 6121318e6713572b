// internal/middleware/admin.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/biologist/catalog-backend/internal/utils"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminKeyRequired guards operator endpoints with a shared key. An empty
// key disables the endpoints entirely.
func AdminKeyRequired(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			utils.NotFoundResponse(c, "Endpoint")
			c.Abort()
			return
		}

		provided := c.GetHeader(AdminKeyHeader)
		if provided == "" || !utils.SecureCompare(provided, key) {
			utils.UnauthorizedResponse(c, "Invalid admin key")
			c.Abort()
			return
		}

		c.Next()
	}
}
