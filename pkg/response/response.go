package response

import (
	"errors"
	"fmt"
	"net/http"

	"blog-api/pkg/apperror"
	"blog-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// debug controls whether 500 responses expose the underlying error.
var debug bool

// SetDebug enables error detail in 500 responses. Call once at startup.
func SetDebug(enabled bool) {
	debug = enabled
}

// Envelope is the uniform response body shape for every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// Success writes a success envelope with the given status code.
func Success(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(c *gin.Context, message string, data any) {
	Success(c, http.StatusCreated, message, data)
}

// NoContent writes an empty 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes an error envelope with the given status code.
func Error(c *gin.Context, code int, message string, errs any) {
	c.JSON(code, Envelope{Success: false, Message: message, Errors: errs})
}

// FromError maps a taxonomy error onto the envelope. Internal errors are
// logged and their detail is hidden unless debug mode is on.
func FromError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	var vErr *apperror.ValidationError
	if errors.As(err, &vErr) {
		Error(c, http.StatusUnprocessableEntity, "Validation failed.", vErr.Fields)
		return
	}

	if code >= http.StatusInternalServerError {
		logger.Log.Error("internal error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		if debug {
			Error(c, code, err.Error(), gin.H{"error": fmt.Sprintf("%T", err)})
			return
		}
		Error(c, code, "Internal server error.", nil)
		return
	}

	Error(c, code, err.Error(), nil)
}
