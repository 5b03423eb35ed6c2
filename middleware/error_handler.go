package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogpress/repository"
	"github.com/cppla/blogpress/utils"
)

// ErrorHandler renders the last error forwarded with ctx.Error as the JSON envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		if len(ctx.Errors) == 0 || ctx.Writer.Written() {
			return
		}
		err := ctx.Errors.Last().Err

		var appErr *utils.AppError
		switch {
		case errors.As(err, &appErr):
			if appErr.Status >= http.StatusInternalServerError {
				utils.Logger.Error("request failed", zap.String("request_id", RequestID(ctx)), zap.Error(err))
			}
			utils.Error(ctx, appErr.Status, appErr.Code, appErr.Message)
		case errors.Is(err, repository.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40400, "Not found")
		case errors.Is(err, repository.ErrDuplicate):
			utils.Error(ctx, http.StatusConflict, 40900, "Resource already exists")
		default:
			utils.Logger.Error("unhandled error",
				zap.String("request_id", RequestID(ctx)),
				zap.String("path", ctx.FullPath()),
				zap.Error(err))
			utils.Error(ctx, http.StatusInternalServerError, 50000, "Internal Server Error")
		}
	}
}
