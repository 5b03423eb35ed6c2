package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/cppla/blogpress/config"
	"github.com/cppla/blogpress/models"
	"github.com/cppla/blogpress/repository"
	"github.com/cppla/blogpress/utils"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthController signs users in with Google.
type OAuthController struct {
	users repository.UserRepository
}

// NewOAuthController creates a controller backed by users.
func NewOAuthController(users repository.UserRepository) *OAuthController {
	return &OAuthController{users: users}
}

// GoogleLogin returns the Google authorization URL with a fresh single-use state.
func (o *OAuthController) GoogleLogin(ctx *gin.Context) {
	cfg, err := googleOAuthConfig()
	if err != nil {
		badRequest(ctx, 40004, err.Error())
		return
	}

	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)

	utils.Success(ctx, gin.H{"authorization_url": cfg.AuthCodeURL(state), "state": state})
}

// GoogleCallback exchanges the authorization code, finds or creates the user by
// email and starts a session.
func (o *OAuthController) GoogleCallback(ctx *gin.Context) {
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" {
		badRequest(ctx, 40005, "missing code or state")
		return
	}
	if !utils.ConsumeState(state) {
		badRequest(ctx, 40006, "invalid or expired state")
		return
	}

	cfg, err := googleOAuthConfig()
	if err != nil {
		badRequest(ctx, 40004, err.Error())
		return
	}

	reqCtx := ctx.Request.Context()
	token, err := cfg.Exchange(reqCtx, code)
	if err != nil {
		badRequest(ctx, 40007, "failed to exchange code")
		return
	}

	info, err := fetchGoogleUser(reqCtx, cfg, token)
	if err != nil {
		utils.Fail(ctx, utils.WrapAppError(http.StatusBadGateway, 50201, "failed to fetch google profile", err))
		return
	}

	user, err := o.findOrCreate(reqCtx, info)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	jwtToken, err := issueSession(ctx, user)
	if err != nil {
		utils.Fail(ctx, utils.WrapAppError(http.StatusInternalServerError, 50004, "failed to generate token", err))
		return
	}
	utils.Success(ctx, gin.H{"token": jwtToken, "user": publicUser(*user)})
}

func googleOAuthConfig() (*oauth2.Config, error) {
	cfg := config.Get()
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, errors.New("google oauth not configured")
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  strings.TrimRight(cfg.OAuthRedirectBase, "/") + "/api/auth/oauth/google/callback",
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}, nil
}

type googleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func fetchGoogleUser(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := cfg.Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google user info request failed: %s", resp.Status)
	}
	var u googleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	if u.Email == "" {
		return nil, errors.New("google account has no email")
	}
	return &u, nil
}

func (o *OAuthController) findOrCreate(ctx context.Context, info *googleUser) (*models.User, error) {
	user, err := o.users.GetByEmail(ctx, info.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}
	picture := info.Picture
	if picture == "" {
		picture = config.Get().DefaultProfilePicture
	}

	base := oauthUsername(info.Name, info.Email)
	for attempt := 0; attempt < 5; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = base + strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
		}
		if reservedUsername(candidate, nil) {
			continue
		}
		user = &models.User{
			Username:       candidate,
			Email:          info.Email,
			PasswordHash:   hash,
			ProfilePicture: picture,
		}
		err = o.users.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, utils.NewAppError(http.StatusConflict, 40902, "could not allocate a username")
}

// oauthUsername derives a lowercase alphanumeric username from the display name,
// falling back to the email local part.
func oauthUsername(name, email string) string {
	clean := func(s string) string {
		var b strings.Builder
		for _, r := range strings.ToLower(s) {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		return b.String()
	}
	base := clean(name)
	if base == "" {
		local, _, _ := strings.Cut(email, "@")
		base = clean(local)
	}
	if base == "" {
		base = "user"
	}
	if len(base) > 16 {
		base = base[:16]
	}
	return base
}
