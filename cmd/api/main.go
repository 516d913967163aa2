package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-recommender/internal/api"
	"recipe-recommender/internal/api/middleware"
	"recipe-recommender/internal/core/cache"
	"recipe-recommender/internal/core/recommender"
	"recipe-recommender/internal/infrastructure/config"
	"recipe-recommender/internal/infrastructure/loader"
	"recipe-recommender/internal/infrastructure/metrics"
	"recipe-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLoggerWithDir(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("corpus_path", cfg.Corpus.DataPath),
		zap.String("corpus_base_url", cfg.Corpus.BaseURL),
		zap.Int("corpus_limit", cfg.Corpus.Limit),
		zap.String("sampling", cfg.Corpus.Sampling),
		zap.Int("min_shared_ingredients", cfg.Graph.MinSharedIngredients),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	// 初始化快取
	store, err := cache.New(cfg.Cache)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	var collector *metrics.Collector
	var observer recommender.Observer
	if cfg.Metrics.Enabled {
		collector = metrics.New(cfg.Metrics.Namespace)
		observer = collector
	}

	opts, err := recommender.OptionsFromConfig(cfg)
	if err != nil {
		common.LogFatal("Invalid recommender options", zap.Error(err))
	}

	// 建立初始快照
	src := loader.New(cfg.Corpus)
	common.LogInfo("Loading corpus", zap.String("source", src.Describe()))
	rec, err := recommender.New(context.Background(), src, opts, recommender.WithObserver(observer))
	if err != nil {
		common.LogFatal("Failed to build recommender", zap.Error(err))
	}

	reloader := recommender.NewReloader(rec, opts.BuildTimeout)
	defer reloader.Close()

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	defer dedup.Stop()

	// 設置路由
	router, err := api.SetupRouter(cfg, api.Dependencies{
		Recommender: rec,
		Reloader:    reloader,
		Cache:       store,
		Metrics:     collector,
		Dedup:       dedup,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// SIGHUP 重新載入語料，SIGINT/SIGTERM 關閉
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range quit {
		if sig == syscall.SIGHUP {
			common.LogInfo("SIGHUP received, reloading corpus")
			reloader.Trigger()
			continue
		}
		break
	}

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
