package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestIDMiddleware propagates the client's X-Request-ID or assigns a new UUID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		reqID := ctx.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx.Writer.Header().Set(requestIDHeader, reqID)
		ctx.Set(requestIDKey, reqID)
		ctx.Next()
	}
}

// RequestID returns the id assigned by RequestIDMiddleware.
func RequestID(ctx *gin.Context) string {
	return ctx.GetString(requestIDKey)
}
