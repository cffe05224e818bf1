package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"videowall/internal/common"
)

// Recovery converts panics into the JSON failure envelope instead of gin's
// default plaintext response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered: %v", r)
				common.Fail(c, http.StatusInternalServerError, "internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
