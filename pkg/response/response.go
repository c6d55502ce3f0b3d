package response

import "github.com/gin-gonic/gin"

// ErrorResponse is the JSON envelope for failed requests.
type ErrorResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Message: message, Success: false})
}

func AbortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Success: false})
}
