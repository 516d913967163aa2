package api

import (
	"fmt"
	"net/http"
	"time"

	"recipe-recommender/internal/api/handlers/admin"
	"recipe-recommender/internal/api/handlers/health"
	recipeHandler "recipe-recommender/internal/api/handlers/recipe"
	"recipe-recommender/internal/api/middleware"
	"recipe-recommender/internal/core/cache"
	"recipe-recommender/internal/core/recommender"
	"recipe-recommender/internal/infrastructure/config"
	"recipe-recommender/internal/infrastructure/metrics"
	"recipe-recommender/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies 路由所需的服務。Recommender 必填，其餘可為 nil
type Dependencies struct {
	Recommender *recommender.Recommender
	Reloader    *recommender.Reloader
	Cache       cache.Store
	Metrics     *metrics.Collector
	Dedup       *middleware.Deduplicator
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Recommender == nil {
		return nil, fmt.Errorf("router requires a recommender")
	}

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
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ErrNotFound.Response(false))
	})

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	if cfg.Server.MaxBodyBytes > 0 {
		router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	}
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, deps.Recommender, deps.Reloader)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	if deps.Metrics != nil && cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	var cacheObserver recipeHandler.CacheObserver
	if deps.Metrics != nil {
		cacheObserver = deps.Metrics
	}
	recipes := recipeHandler.NewHandler(deps.Recommender, deps.Cache, cacheObserver, cfg.App.Debug)
	admins := admin.NewHandler(deps.Recommender, deps.Reloader, deps.Cache, cfg.App.Debug)

	dedup := deps.Dedup
	if dedup == nil {
		dedup = middleware.NewDeduplicator(cfg.DedupWindow)
	}

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	{
		api.GET("/resolve", recipes.HandleResolve)
		api.POST("/query", recipes.HandleQuery)
		api.GET("/stats", admins.HandleStats)

		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("/:id", recipes.HandleRecipe)
			recipeGroup.GET("/:id/recommendations", recipes.HandleRecommendations)
		}

		adminGroup := api.Group("/admin")
		{
			adminGroup.POST("/reload", dedup.Handler(), admins.HandleReload)
			adminGroup.PUT("/defaults", admins.HandleConfigure)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.Bool("cache_enabled", deps.Cache != nil),
		zap.Bool("metrics_enabled", deps.Metrics != nil && cfg.Metrics.Enabled),
		zap.Bool("reload_enabled", deps.Reloader != nil),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
