package common

import "github.com/gin-gonic/gin"

// OK renders a success envelope merged with extra payload fields.
func OK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(200, body)
}

// Fail renders the failure envelope the dashboard clients parse.
func Fail(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, gin.H{
		"success": false,
		"error":   msg,
	})
}
