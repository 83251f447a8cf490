package middleware

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects requests whose body is not declared as application/json.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || mediaType != "application/json" {
			RespondWithError(c, http.StatusBadRequest, "Content-Type must be application/json")
			c.Abort()
			return
		}
		c.Next()
	}
}
