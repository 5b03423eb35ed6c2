package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// AppError is an error with a specific HTTP status, rendered by the error middleware.
type AppError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates an AppError without an underlying cause.
func NewAppError(status, code int, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

// WrapAppError attaches the underlying cause, kept for logs only.
func WrapAppError(status, code int, message string, err error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

// Fail forwards err to the error middleware and stops the handler chain.
func Fail(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	ctx.Abort()
}
