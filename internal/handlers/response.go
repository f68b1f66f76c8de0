package handlers

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the JSON response shape shared by every endpoint
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Code    int         `json:"code"`
}

// respondOK writes a success envelope with the given payload
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{
		Success: true,
		Data:    data,
		Code:    status,
	})
}

// respondError writes a failure envelope with the given message
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
		Code:    status,
	})
}
