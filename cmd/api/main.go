package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cupost/cupost-api/config"
	"github.com/cupost/cupost-api/internal/handlers"
	"github.com/cupost/cupost-api/internal/middleware"
	"github.com/cupost/cupost-api/internal/services"
	"github.com/cupost/cupost-api/pkg/captcha"
	"github.com/cupost/cupost-api/pkg/httpclient"
	"github.com/cupost/cupost-api/pkg/logger"
	"github.com/cupost/cupost-api/pkg/metrics"
	"github.com/cupost/cupost-api/pkg/profiling"
	"github.com/cupost/cupost-api/pkg/telegram"
	"github.com/cupost/cupost-api/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Cupost API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
		zap.String("captcha_mode", cfg.Captcha.Mode),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceVersion,
		cfg.Server.AppEnv,
		cfg.Observability.OTLPEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Initialize metrics and start infrastructure metrics collection
	metrics.Init()
	metrics.RecordInfrastructureMetrics()

	// Initialize continuous profiling (no-op unless enabled)
	profilerStop, err := profiling.InitProfiler(
		cfg.Profiling,
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceVersion,
		cfg.Server.AppEnv,
	)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer profilerStop()

	// Shared HTTP client for captcha and Bot API calls
	httpClient := httpclient.NewStandardClient()

	// Wire the submission pipeline
	captchaVerifier := captcha.NewVerifier(captcha.Mode(cfg.Captcha.Mode), cfg.Captcha.Secret(), httpClient)
	dispatcher := telegram.NewClient(cfg.Telegram.BotToken, httpClient)
	submissionService := services.NewSubmissionService(cfg, captchaVerifier, dispatcher)

	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	configHandler := handlers.NewConfigHandler(cfg.Captcha)
	healthHandler := handlers.NewHealthHandler()

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true, // the submission cooldown cookie must round-trip
		MaxAge:           12 * time.Hour,
	}))

	// Per-IP limiters guard against floods; the per-submitter cooldown is the
	// signed cookie checked inside the submission pipeline.
	generalRateLimiter := middleware.NewRateLimiter(100, 200) // 100 req/sec, burst of 200
	submissionRateLimiter := middleware.NewRateLimiter(5, 10) // 5 req/sec, burst of 10

	// Body limit leaves room for multipart framing on top of the attachment cap
	submissionBodyLimit := cfg.Submission.MaxAttachmentBytes() + 64*1024

	router.POST("/submission", submissionRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(submissionBodyLimit), submissionHandler.Submit)
	router.GET("/config", generalRateLimiter.Middleware(), configHandler.GetConfig)
	router.GET("/health", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	router.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	registerStaticRoutes(router, cfg.Server.StaticDir)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// registerStaticRoutes serves the single-page form when a built bundle is
// present. API containers without a bundle run headless.
func registerStaticRoutes(router *gin.Engine, staticDir string) {
	indexPath := filepath.Join(staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		logger.Info("Static bundle not found, serving API only", zap.String("dir", staticDir))
		return
	}

	router.Static("/assets", filepath.Join(staticDir, "assets"))
	router.StaticFile("/favicon.ico", filepath.Join(staticDir, "favicon.ico"))

	// SPA fallback: unknown non-API paths get the index page
	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || strings.HasPrefix(c.Request.URL.Path, "/assets/") {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
			return
		}
		c.File(indexPath)
	})
}
