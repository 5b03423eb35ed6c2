package controllers

import (
	"errors"
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

// AuthController handles signup, signin and signout.
type AuthController struct {
	users repository.UserRepository
}

// NewAuthController creates a controller backed by users.
func NewAuthController(users repository.UserRepository) *AuthController {
	return &AuthController{users: users}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates a local account. Any missing field rejects the request before
// anything is written.
func (a *AuthController) Signup(ctx *gin.Context) {
	var req signupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 40001, "All fields are required")
		return
	}
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || strings.TrimSpace(req.Password) == "" {
		badRequest(ctx, 40001, "All fields are required")
		return
	}
	if len(req.Password) > maxPasswordBytes {
		badRequest(ctx, 40003, "Password must be at most 72 characters")
		return
	}
	if reservedUsername(username, nil) {
		utils.Fail(ctx, utils.NewAppError(http.StatusConflict, 40901, "Username or email already exists"))
		return
	}

	ip := ctx.ClientIP()
	if !utils.SignupCooldownTry(ip) || !utils.SignupDailyAllowed(ip) {
		utils.Fail(ctx, utils.NewAppError(http.StatusTooManyRequests, 42902, "Too many signup attempts, please try again later"))
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	user := models.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		ProfilePicture: config.Get().DefaultProfilePicture,
	}
	if err := a.users.Create(ctx.Request.Context(), &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.Fail(ctx, utils.NewAppError(http.StatusConflict, 40901, "Username or email already exists"))
			return
		}
		utils.Fail(ctx, err)
		return
	}

	utils.SignupDailyIncrement(ip)
	utils.Sugar.Infow("user signed up", "user_id", user.ID, "request_id", middleware.RequestID(ctx))
	utils.Message(ctx, "User successfully created!")
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signin verifies credentials and issues a JWT in both the body and the access_token cookie.
func (a *AuthController) Signin(ctx *gin.Context) {
	var req signinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 40001, "All fields are required")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		badRequest(ctx, 40001, "All fields are required")
		return
	}

	user, err := a.users.GetByEmail(ctx.Request.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			badRequest(ctx, 40002, "Invalid email or password")
			return
		}
		utils.Fail(ctx, err)
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		badRequest(ctx, 40002, "Invalid email or password")
		return
	}

	token, err := issueSession(ctx, user)
	if err != nil {
		utils.Fail(ctx, utils.WrapAppError(http.StatusInternalServerError, 50004, "failed to generate token", err))
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": publicUser(*user)})
}

// Signout revokes the presented token until its expiry and clears the cookie.
func (a *AuthController) Signout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	expiresAt := time.Now().Add(utils.TokenTTL)
	if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)
	clearSession(ctx)
	utils.Message(ctx, "User has been signed out")
}
