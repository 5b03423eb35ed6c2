package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogpress/config"
	"github.com/cppla/blogpress/middleware"
	"github.com/cppla/blogpress/models"
	"github.com/cppla/blogpress/repository"
	"github.com/cppla/blogpress/utils"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// userView is the public shape of a user; the password hash is never serialized.
type userView struct {
	models.User
	IsAdmin bool `json:"isAdmin"`
}

func publicUser(u models.User) userView {
	return userView{User: u, IsAdmin: config.Get().IsAdmin(u.Username)}
}

// isAdmin looks the caller up by id; the username claim in the token is not trusted.
func isAdmin(ctx *gin.Context, users repository.UserRepository) bool {
	id := middleware.CurrentUserID(ctx)
	if id == "" || users == nil {
		return false
	}
	user, err := users.GetByID(ctx.Request.Context(), id)
	if err != nil {
		return false
	}
	return config.Get().IsAdmin(user.Username)
}

// reservedUsername reports whether name is a configured admin name that current
// does not already hold. current is nil for new accounts.
func reservedUsername(name string, current *models.User) bool {
	if !config.Get().IsAdmin(name) {
		return false
	}
	return current == nil || !strings.EqualFold(strings.TrimSpace(current.Username), strings.TrimSpace(name))
}

// issueSession signs a token for user and sets it as the access_token cookie.
func issueSession(ctx *gin.Context, user *models.User) (string, error) {
	token, err := utils.GenerateToken(user.ID, user.Username, utils.TokenTTL)
	if err != nil {
		return "", err
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.AccessTokenCookie, token, int(utils.TokenTTL/time.Second), "/", "", ctx.Request.TLS != nil, true)
	return token, nil
}

func clearSession(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", ctx.Request.TLS != nil, true)
}

func badRequest(ctx *gin.Context, code int, message string) {
	utils.Fail(ctx, utils.NewAppError(http.StatusBadRequest, code, message))
}
