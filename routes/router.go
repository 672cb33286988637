package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aquametrics/aquametrics/config"
	"github.com/aquametrics/aquametrics/controllers"
	"github.com/aquametrics/aquametrics/engine"
	"github.com/aquametrics/aquametrics/middleware"
	"github.com/aquametrics/aquametrics/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, eng *engine.Engine) *gin.Engine {
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
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(eng)
	profileController := controllers.NewProfileController(eng)
	rewardsController := controllers.NewRewardsController(eng)
	postController := controllers.NewPostController(db)
	cropController := controllers.NewCropController(eng)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/forgot-password", authController.ForgotPassword)
	authGroup.POST("/verify-otp", authController.VerifyOtp)
	authGroup.POST("/reset-password", authController.ResetPassword)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Public surfaces
	api.GET("/top", rewardsController.Leaderboard)
	api.GET("/community/all", postController.List)
	api.GET("/username/:id", profileController.Username)
	r.GET("/api/crops/:name", cropController.Get)

	// Manual point adjustments come from the leaderboard/admin side and
	// carry their own identity; rate limited but not session bound.
	api.POST("/points/update", middleware.RateLimitMiddleware(), rewardsController.UpdatePoints)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.GET("/rewards", rewardsController.Rewards)
	protected.GET("/rewards/history", rewardsController.History)
	protected.POST("/profile/edit", profileController.Edit)
	protected.DELETE("/profile", profileController.Delete)
	protected.POST("/community/create", postController.Create)
	protected.POST("/products", cropController.AddProduct)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
