package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"github.com/cppla/blogpress/config"
	"github.com/cppla/blogpress/controllers"
	"github.com/cppla/blogpress/middleware"
	"github.com/cppla/blogpress/repository"
	"github.com/cppla/blogpress/storage"
	"github.com/cppla/blogpress/utils"
)

// Dependencies are the backends the HTTP layer is wired to.
type Dependencies struct {
	Users repository.UserRepository
	Posts repository.PostRepository
	Store storage.ObjectStore
	Cache *utils.Cache
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.UploadMaxSize + (1 << 20)

	accessLog, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		utils.Sugar.Warnf("access log disabled: %v", err)
		r.Use(gin.Recovery())
	} else {
		r.Use(ginzap.Ginzap(accessLog, time.RFC3339, true))
		r.Use(ginzap.RecoveryWithZap(accessLog, true))
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		// credentials cannot be combined with a literal wildcard origin
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorHandler())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(deps.Users)
	oauthController := controllers.NewOAuthController(deps.Users)
	userController := controllers.NewUserController(deps.Users, deps.Cache)
	postController := controllers.NewPostController(deps.Posts, deps.Users, deps.Store, deps.Cache)
	uploadController := controllers.NewUploadController(deps.Store)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/signup", authController.Signup)
	authGroup.POST("/signin", authController.Signin)
	authGroup.POST("/signout", middleware.AuthRequired(), authController.Signout)
	authGroup.GET("/oauth/google/login", oauthController.GoogleLogin)
	authGroup.GET("/oauth/google/callback", oauthController.GoogleCallback)

	userGroup := api.Group("/user")
	userGroup.GET("/me", middleware.AuthRequired(), userController.Me)
	userGroup.GET("/:id", userController.GetUser)
	userGroup.POST("/update/:id", middleware.AuthRequired(), userController.UpdateUser)
	userGroup.PUT("/update/:id", middleware.AuthRequired(), userController.UpdateUser)
	userGroup.DELETE("/delete/:id", middleware.AuthRequired(), userController.DeleteUser)

	postGroup := api.Group("/post")
	postGroup.GET("/getposts", postController.GetPosts)
	postGroup.POST("/create", middleware.AuthRequired(), postController.CreatePost)
	postGroup.PUT("/update/:id", middleware.AuthRequired(), postController.UpdatePost)
	postGroup.DELETE("/delete/:id", middleware.AuthRequired(), postController.DeletePost)

	api.POST("/upload", middleware.AuthRequired(), middleware.RateLimitMiddleware(), uploadController.Upload)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
