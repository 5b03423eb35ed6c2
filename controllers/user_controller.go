package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogpress/config"
	"github.com/cppla/blogpress/middleware"
	"github.com/cppla/blogpress/models"
	"github.com/cppla/blogpress/repository"
	"github.com/cppla/blogpress/utils"
)

const (
	userCachePrefix = "cache:user:public:"
	userCacheTTL    = time.Hour
)

// UserController manages profile reads, updates and account deletion.
type UserController struct {
	users repository.UserRepository
	cache *utils.Cache
}

// NewUserController creates a controller; cache may be nil.
func NewUserController(users repository.UserRepository, cache *utils.Cache) *UserController {
	return &UserController{users: users, cache: cache}
}

// Me returns the authenticated user.
func (u *UserController) Me(ctx *gin.Context) {
	user, err := u.users.GetByID(ctx.Request.Context(), middleware.CurrentUserID(ctx))
	if err != nil {
		u.failLookup(ctx, err)
		return
	}
	utils.Success(ctx, publicUser(*user))
}

// GetUser returns public user info by id.
func (u *UserController) GetUser(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Param("id"))
	key := userCachePrefix + id

	var cached userView
	if u.cache.GetJSON(ctx.Request.Context(), key, &cached) {
		utils.Success(ctx, cached)
		return
	}

	user, err := u.users.GetByID(ctx.Request.Context(), id)
	if err != nil {
		u.failLookup(ctx, err)
		return
	}
	view := publicUser(*user)
	u.cache.SetJSON(ctx.Request.Context(), key, view, userCacheTTL)
	utils.Success(ctx, view)
}

type updateUserRequest struct {
	Username       *string `json:"username"`
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	ProfilePicture *string `json:"profilePicture"`
}

// UpdateUser applies a partial profile update for the owner of :id.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	id := ctx.Param("id")
	if middleware.CurrentUserID(ctx) != id {
		utils.Fail(ctx, utils.NewAppError(http.StatusForbidden, 40301, "You are not allowed to update this user"))
		return
	}

	var req updateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(ctx, 40010, "invalid request payload")
		return
	}

	upd, msg := buildUserUpdate(req)
	if msg != "" {
		badRequest(ctx, 40011, msg)
		return
	}
	if upd.Empty() {
		badRequest(ctx, 40012, "No changes made")
		return
	}
	if upd.Username != nil && config.Get().IsAdmin(*upd.Username) {
		current, err := u.users.GetByID(ctx.Request.Context(), id)
		if err != nil {
			u.failLookup(ctx, err)
			return
		}
		if reservedUsername(*upd.Username, current) {
			utils.Fail(ctx, utils.NewAppError(http.StatusConflict, 40901, "Username or email already exists"))
			return
		}
	}
	if upd.PasswordHash != nil {
		hash, err := utils.HashPassword(*upd.PasswordHash)
		if err != nil {
			utils.Fail(ctx, err)
			return
		}
		upd.PasswordHash = &hash
	}

	user, err := u.users.Update(ctx.Request.Context(), id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.Fail(ctx, utils.NewAppError(http.StatusConflict, 40901, "Username or email already exists"))
			return
		}
		u.failLookup(ctx, err)
		return
	}

	u.cache.Delete(ctx.Request.Context(), userCachePrefix+id)
	utils.Success(ctx, publicUser(*user))
}

// buildUserUpdate validates the request and returns the first failure message.
// PasswordHash carries the plaintext until the caller hashes it.
func buildUserUpdate(req updateUserRequest) (models.UserUpdate, string) {
	var upd models.UserUpdate
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return upd, "Password must be at least 6 characters"
		}
		if len(*req.Password) > maxPasswordBytes {
			return upd, "Password must be at most 72 characters"
		}
		upd.PasswordHash = req.Password
	}
	if req.Username != nil {
		name := *req.Username
		if msg := validateUsername(name); msg != "" {
			return upd, msg
		}
		upd.Username = &name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !strings.Contains(email, "@") {
			return upd, "Invalid email address"
		}
		upd.Email = &email
	}
	if req.ProfilePicture != nil {
		pic := strings.TrimSpace(*req.ProfilePicture)
		upd.ProfilePicture = &pic
	}
	return upd, ""
}

func validateUsername(name string) string {
	if n := len(name); n < 7 || n > 20 {
		return "Username must be between 7 and 20 characters"
	}
	if strings.ContainsFunc(name, unicode.IsSpace) {
		return "Username cannot contain spaces"
	}
	if name != strings.ToLower(name) {
		return "Username must be lowercase"
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "Username can only contain letters and numbers"
		}
	}
	return ""
}

// DeleteUser removes the account at :id. Owners and admins only.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")
	self := middleware.CurrentUserID(ctx) == id
	if !self && !isAdmin(ctx, u.users) {
		utils.Fail(ctx, utils.NewAppError(http.StatusForbidden, 40302, "You are not allowed to delete this user"))
		return
	}

	if err := u.users.Delete(ctx.Request.Context(), id); err != nil {
		u.failLookup(ctx, err)
		return
	}

	u.cache.Delete(ctx.Request.Context(), userCachePrefix+id)
	if self {
		clearSession(ctx)
	}
	utils.Message(ctx, "User has been deleted")
}

func (u *UserController) failLookup(ctx *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		utils.Fail(ctx, utils.NewAppError(http.StatusNotFound, 40401, "User not found"))
		return
	}
	utils.Fail(ctx, err)
}
