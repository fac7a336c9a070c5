package api

import (
	"context"
	"net/http"
	"time"

	"recipe-pipeline/internal/api/handlers/account"
	"recipe-pipeline/internal/api/handlers/health"
	recipeHandler "recipe-pipeline/internal/api/handlers/recipe"
	videoHandler "recipe-pipeline/internal/api/handlers/video"
	"recipe-pipeline/internal/api/middleware"
	"recipe-pipeline/internal/core/auth"
	"recipe-pipeline/internal/core/gemini"
	recipeService "recipe-pipeline/internal/core/recipe"
	"recipe-pipeline/internal/core/repository"
	"recipe-pipeline/internal/core/sms"
	"recipe-pipeline/internal/core/user"
	"recipe-pipeline/internal/core/youtube"
	"recipe-pipeline/internal/infrastructure/config"
	"recipe-pipeline/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// 超時設置
	timeoutDuration = 120 * time.Second
	// 請求體大小限制 (1MB)
	maxBodySize = 1 << 20
)

// SetupRouter 設置路由並初始化所有服務
// 回傳路由引擎與生成協調器，關機時可等待背景流程結束
func SetupRouter(cfg *config.Config, db *gorm.DB, extractionCache *recipeService.ExtractionCache) (*gin.Engine, *recipeService.Generator, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  "REQUEST_TIMEOUT",
			})
		}
	})

	// 全局限流
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// 資料存取層
	videoRepo := repository.NewVideoRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	requestRepo := repository.NewUserRecipeRequestRepository(db)
	userRepo := repository.NewUserRepository(db)

	// 提示詞模板
	promptTmpl, err := gemini.LoadPromptTemplate(cfg.Prompt.Path)
	if err != nil {
		common.LogError("Failed to load prompt template", zap.Error(err))
		return nil, nil, err
	}

	// 核心服務
	videoSvc := youtube.NewService(videoRepo, youtube.NewInnertubeClient(cfg), cfg)
	geminiClient := gemini.NewClient(&cfg.Gemini)
	generator := recipeService.NewGenerator(recipeRepo, requestRepo, videoSvc, geminiClient, extractionCache, promptTmpl, cfg)
	explorer := recipeService.NewExplorer(recipeRepo, requestRepo, videoRepo)
	searcher := recipeService.NewSearcher(recipeRepo, videoRepo)

	// 帳號相關服務
	jwtManager := auth.NewJWTManager(&cfg.JWT)
	authSvc := auth.NewService(userRepo, jwtManager,
		auth.NewKakaoClient(&cfg.OAuth.Kakao),
		auth.NewAppleClient(&cfg.OAuth.Apple))
	userSvc := user.NewService(userRepo)
	smsSvc := sms.NewService(&cfg.SMS)

	common.LogInfo("Services initialized",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("model", cfg.Gemini.Model),
		zap.String("prompt_path", cfg.Prompt.Path),
	)

	// 處理器
	healthH := health.NewHandler(cfg, db)
	recipeH := recipeHandler.NewHandler(generator, explorer, searcher)
	videoH := videoHandler.NewHandler(videoSvc)
	authH := account.NewAuthHandler(authSvc, smsSvc)
	userH := account.NewUserHandler(userSvc, smsSvc)
	smsH := account.NewSMSHandler(smsSvc)

	// 健康檢查路由
	router.GET("/health", healthH.HealthCheck)
	router.GET("/ready", healthH.ReadinessCheck)
	router.GET("/live", healthH.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		// 帳號
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authH.HandleRegister)
			authGroup.POST("/login", authH.HandleLogin)
			authGroup.POST("/login/kakao", authH.HandleKakaoLogin)
			authGroup.POST("/login/apple", authH.HandleAppleLogin)
			authGroup.POST("/refresh", authH.HandleRefresh)
		}

		// 使用者
		userGroup := api.Group("/users")
		{
			userGroup.GET("/me", middleware.RequireAuth(jwtManager), userH.HandleGetProfile)
			userGroup.PATCH("/me", middleware.RequireAuth(jwtManager), userH.HandleUpdateProfile)
			userGroup.POST("/me/withdraw", middleware.RequireAuth(jwtManager), userH.HandleWithdraw)
			userGroup.POST("/password/reset", userH.HandleResetPassword)
		}

		// 簡訊驗證
		smsGroup := api.Group("/sms")
		{
			smsGroup.POST("/send", smsH.HandleSendCode)
			smsGroup.POST("/verify", smsH.HandleVerifyCode)
		}

		// 食譜
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.POST("", middleware.OptionalAuth(jwtManager), recipeH.HandleGenerate)
			recipeGroup.GET("/explore", middleware.OptionalAuth(jwtManager), recipeH.HandleExplore)
			recipeGroup.GET("/popular", recipeH.HandlePopular)
			recipeGroup.GET("/search", recipeH.HandleSearch)
			recipeGroup.GET("/keywords", recipeH.HandleKeywords)
			recipeGroup.GET("/history", middleware.RequireAuth(jwtManager), recipeH.HandleHistory)
			recipeGroup.GET("/video/:videoId", recipeH.HandleGetByVideo)
			recipeGroup.GET("/:id", recipeH.HandleGetByID)
			recipeGroup.DELETE("/:id", middleware.RequireAuth(jwtManager), recipeH.HandleDelete)
		}

		// 影片資料
		videoGroup := api.Group("/videos")
		{
			videoGroup.GET("/search", videoH.HandleSearch)
			videoGroup.POST("/bulk", videoH.HandleBulk)
			videoGroup.GET("/:videoId", videoH.HandleComprehensive)
			videoGroup.GET("/:videoId/info", videoH.HandleInfo)
			videoGroup.GET("/:videoId/comments", videoH.HandleComments)
			videoGroup.GET("/:videoId/transcript", videoH.HandleTranscript)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, generator, nil
}
