// Package main runs the QR event registration HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fossuok/qr-event-backend/config"
	"github.com/fossuok/qr-event-backend/internal/admin"
	"github.com/fossuok/qr-event-backend/internal/auth"
	"github.com/fossuok/qr-event-backend/internal/events"
	"github.com/fossuok/qr-event-backend/internal/mail"
	"github.com/fossuok/qr-event-backend/internal/middleware"
	"github.com/fossuok/qr-event-backend/internal/qr"
	"github.com/fossuok/qr-event-backend/internal/realtime"
	"github.com/fossuok/qr-event-backend/internal/users"
	"github.com/fossuok/qr-event-backend/pkg/database"
	"github.com/fossuok/qr-event-backend/pkg/queue"
	"github.com/fossuok/qr-event-backend/pkg/redis"
	"github.com/fossuok/qr-event-backend/pkg/response"
	"github.com/fossuok/qr-event-backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Mail delivery is optional: without Redis the queue is disabled and
	// registration proceeds without emails.
	var jobQueue *queue.Queue
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("mail queue disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		jobQueue = queue.NewQueue(rdb.Client, logger)
	}

	var banners events.BannerStorage
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			EventsBucket:    cfg.AWS.EventsBucket,
		}
		s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			banners = s3Client
		}
	}

	// Events: repository, active-event cache, admin service.
	eventRepo := events.NewRepository(pool)
	eventCache := events.NewCache(eventRepo,
		time.Duration(cfg.Cache.ActiveEventTTLSec)*time.Second,
		time.Duration(cfg.Cache.StoreTimeoutSec)*time.Second,
		logger)
	eventService := events.NewService(eventRepo, eventCache, logger)
	eventHandler := events.NewHandler(eventService, banners, logger)

	// Users: registration and verification.
	renderer := qr.NewRenderer(cfg.QR.Workers, cfg.QR.Size)
	hub := realtime.NewHub(logger)
	userRepo := users.NewRepository(pool)
	var mailQueue users.MailQueue
	if jobQueue != nil {
		mailQueue = jobQueue
	}
	userService := users.NewService(userRepo, eventCache, renderer, mailQueue, hub, logger)
	userHandler := users.NewHandler(userService, renderer, logger)

	// Auth: GitHub OAuth + session cookie.
	githubClient := auth.NewGitHubClient(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret)
	sessions := auth.NewSessionService(cfg.Session.Secret, cfg.Session.MaxAgeHours)
	authHandler := auth.NewHandler(githubClient, sessions, userService, cfg.Server.PostLoginURL, logger)

	// Admin surface.
	adminHandler := admin.NewHandler(userRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/", func(c *gin.Context) {
		response.OK(c, gin.H{
			"version": "0.1.0",
			"message": "Welcome to the FOSSUoK QR-based event registration system!",
		})
	})
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.GET("/github", authHandler.Login)
		authGroup.GET("/callback", authHandler.Callback)
		authGroup.GET("/logout", authHandler.Logout)
	}

	// Public registration
	userGroup := router.Group("/user")
	{
		userGroup.POST("/events/register", userHandler.RegisterManual)
		userGroup.GET("/events/:qr/qr", userHandler.DownloadQR)
	}

	// Verification (any signed-in user)
	api := router.Group("/api")
	api.Use(middleware.Session(sessions))
	{
		api.POST("/verify", userHandler.Verify)
	}

	// Admin (session + admin role)
	adminGroup := router.Group("/admin")
	adminGroup.Use(middleware.Session(sessions), middleware.RequireRole("admin"))
	{
		adminGroup.POST("/events", eventHandler.Create)
		adminGroup.GET("/events", eventHandler.List)
		adminGroup.GET("/events/:id", eventHandler.GetByID)
		adminGroup.PATCH("/events/:id", eventHandler.Update)
		adminGroup.POST("/events/:id/toggle", eventHandler.Toggle)
		adminGroup.DELETE("/events/:id", eventHandler.Delete)
		adminGroup.POST("/events/:id/image", eventHandler.UploadImage)

		adminGroup.GET("/stats", adminHandler.GetStats)
		adminGroup.GET("/participants", adminHandler.ListParticipants)
		adminGroup.GET("/users", adminHandler.ListUsers)
		adminGroup.PATCH("/users/:id/role", adminHandler.ChangeRole)
		adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
		adminGroup.GET("/report.pdf", adminHandler.Report)
		adminGroup.GET("/ws", hub.ServeWS)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background mail worker (QR email delivery)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if jobQueue != nil {
		mailer := mail.NewMailer(cfg.Mailjet, logger)
		go mail.NewWorker(jobQueue, mailer, logger).Run(workerCtx)
		logger.Info("mail worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
