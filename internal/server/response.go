package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope for every API reply.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func writeSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func writeError(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error:   &ErrorInfo{Message: message, Code: code},
	})
}

func writeBadRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, message, "BAD_REQUEST")
}

func writeNotFound(c *gin.Context, message string) {
	writeError(c, http.StatusNotFound, message, "NOT_FOUND")
}

func writeInternalError(c *gin.Context, message string) {
	writeError(c, http.StatusInternalServerError, message, "INTERNAL_ERROR")
}

func writeUnavailable(c *gin.Context, message string) {
	writeError(c, http.StatusServiceUnavailable, message, "UNAVAILABLE")
}
