package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/makeups-api/api/swagger"
	"github.com/noah-isme/makeups-api/internal/handler"
	"github.com/noah-isme/makeups-api/internal/middleware"
	"github.com/noah-isme/makeups-api/internal/models"
	"github.com/noah-isme/makeups-api/internal/repository"
	"github.com/noah-isme/makeups-api/internal/service"
	"github.com/noah-isme/makeups-api/pkg/cache"
	"github.com/noah-isme/makeups-api/pkg/config"
	"github.com/noah-isme/makeups-api/pkg/database"
	"github.com/noah-isme/makeups-api/pkg/jobs"
	"github.com/noah-isme/makeups-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/makeups-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/makeups-api/pkg/middleware/requestid"
	"github.com/noah-isme/makeups-api/pkg/storage"
)

// @title Makeups API
// @version 1.0.0
// @description Faculty review of student makeup exam requests
// @BasePath /makeups/api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, request list cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewRequestListCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Review.CacheTTL, logr, cfg.Review.CacheEnabled)

	files, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("attachment storage unavailable", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.HandleTTL)

	releaseQueue := jobs.NewQueue("attachment-release", jobs.QueueConfig{
		Workers:    cfg.Attachments.ReleaseWorkers,
		BufferSize: cfg.Attachments.ReleaseQueueSize,
		MaxRetries: 2,
		RetryDelay: time.Second,
		Logger:     logr,
	})
	handles := service.NewAttachmentHandleRegistry(files, signer, releaseQueue, service.AttachmentHandleConfig{APIPrefix: cfg.APIPrefix}, metrics, logr)
	releaseQueue.Register(service.JobTypeAttachmentRelease, handles.HandleReleaseJob)
	releaseQueue.Start(ctx)
	defer releaseQueue.Stop()
	handles.StartCleanup(ctx, cfg.Attachments.CleanupInterval)

	courseRepo := repository.NewFacultyCourseRepository(db)
	reviewSvc := service.NewReviewService(
		courseRepo,
		repository.NewMakeupRequestRepository(db),
		repository.NewAttachmentRepository(db),
		handles,
		service.NewAttachmentDecoder(cfg.Attachments.AllowedMIMEs, cfg.Attachments.MaxDecodedBytes),
		cacheSvc,
		repository.NewAuditRepository(db),
		metrics,
		service.ReviewConfig{StoreTimeout: cfg.Review.StoreTimeout},
		logr,
	)
	exportSvc := service.NewExportService(cfg.Exports.Enabled, cfg.Review.Location(), logr)
	sessions := service.NewSessionVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)

	requestHandler := handler.NewMakeupRequestHandler(reviewSvc, exportSvc, cfg.Review.Location())
	attachmentHandler := handler.NewAttachmentHandler(reviewSvc, handles)
	metricsHandler := handler.NewMetricsHandler(metrics, courseRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/attachments/download", attachmentHandler.Download)

	faculty := api.Group("")
	faculty.Use(middleware.JWT(sessions), middleware.RequireRoles(models.RoleFaculty))
	faculty.GET("/course", requestHandler.Course)
	faculty.GET("/requests", requestHandler.List)
	faculty.GET("/requests/export", requestHandler.Export)
	faculty.GET("/requests/:id", requestHandler.Get)
	faculty.PATCH("/requests/:id/status", requestHandler.UpdateStatus)
	faculty.GET("/requests/:id/attachments", attachmentHandler.Panel)
	faculty.DELETE("/attachments", attachmentHandler.Release)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logr.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("graceful shutdown failed", zap.Error(err))
			_ = server.Close()
		}
	}
}
