package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogpress/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextTokenKey stores the raw token so signout can revoke it.
	ContextTokenKey = "token"
	// AccessTokenCookie is the cookie set on signin.
	AccessTokenCookie = "access_token"
)

// AuthRequired ensures the request is authenticated via JWT, read from the
// Authorization header or the access_token cookie.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, code, msg := extractToken(ctx)
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Next()
	}
}

func extractToken(ctx *gin.Context) (string, int, string) {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", 40102, "invalid authorization header format"
		}
		token := strings.TrimSpace(parts[1])
		if token == "" {
			return "", 40103, "empty bearer token"
		}
		return token, 0, ""
	}
	if cookie, err := ctx.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie, 0, ""
	}
	return "", 40101, "authentication required"
}

// CurrentUserID returns the authenticated user's id.
func CurrentUserID(ctx *gin.Context) string {
	return ctx.GetString(ContextUserIDKey)
}

// CurrentUsername returns the authenticated user's username.
func CurrentUsername(ctx *gin.Context) string {
	return ctx.GetString(ContextUsernameKey)
}
