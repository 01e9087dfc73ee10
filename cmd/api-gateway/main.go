package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/procurement-api/api/swagger"
	"github.com/noah-isme/procurement-api/internal/handler"
	"github.com/noah-isme/procurement-api/internal/middleware"
	"github.com/noah-isme/procurement-api/internal/realtime"
	"github.com/noah-isme/procurement-api/internal/repository"
	"github.com/noah-isme/procurement-api/internal/service"
	"github.com/noah-isme/procurement-api/pkg/cache"
	"github.com/noah-isme/procurement-api/pkg/config"
	"github.com/noah-isme/procurement-api/pkg/database"
	"github.com/noah-isme/procurement-api/pkg/export"
	"github.com/noah-isme/procurement-api/pkg/jobs"
	"github.com/noah-isme/procurement-api/pkg/logger"
	"github.com/noah-isme/procurement-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/procurement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/procurement-api/pkg/middleware/requestid"
	"github.com/noah-isme/procurement-api/pkg/ocr"
	"github.com/noah-isme/procurement-api/pkg/storage"
)

// @title Procurement API
// @version 1.0.0
// @description Request intake, review, vendor forwarding and stock keeping
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(db); err != nil {
			logr.Sugar().Fatalw("migrations failed", "error", err)
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalogue cache disabled", "error", err)
		} else {
			defer client.Close()
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(client, logr), metrics, cfg.Cache.TTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	foodItemRepo := repository.NewFoodItemRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	localStore, err := storage.NewLocalStorage(cfg.Storage.UploadsDir)
	if err != nil {
		logr.Sugar().Fatalw("uploads directory unavailable", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
	uploads := storage.NewUploads(localStore, signer, cfg.Storage.PublicBaseURL+cfg.APIPrefix, cfg.Storage.MaxFileSizeBytes)

	policy, err := export.ParseOverflowPolicy(cfg.PDF.OverflowPolicy)
	if err != nil {
		logr.Sugar().Fatalw("invalid pdf overflow policy", "error", err)
	}
	pdf := export.NewPDFExporter(policy, cfg.PDF.Title)

	activities := service.NewActivityService(activityRepo, logr.Named("activities"), cfg.Activities.Retention)
	notifications, err := service.NewNotificationService(mailer.NewSMTPSender(cfg.SMTP), pdf, metrics, validate, logr.Named("mail"))
	if err != nil {
		logr.Sugar().Fatalw("notification templates failed", "error", err)
	}

	authSvc := service.NewAuthService(userRepo, activities, validate, logr.Named("auth"), service.AuthConfig{
		Secret:        cfg.JWT.Secret,
		Expiry:        cfg.JWT.Expiration,
		RefreshWindow: cfg.JWT.RefreshWindow,
		Issuer:        cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, requestRepo, activities, validate, logr.Named("users"))
	requestSvc := service.NewRequestService(requestRepo, uploads, activities, metrics, logr.Named("requests"))
	reviewSvc := service.NewReviewService(requestRepo, userRepo, notifications, activities, metrics, validate, logr.Named("review"))
	forwardingSvc := service.NewForwardingService(requestRepo, vendorRepo, pdf, notifications, activities, logr.Named("forwarding"))
	catalogueSvc := service.NewCatalogueService(vendorRepo, foodItemRepo, cacheSvc, activities, validate, logr.Named("catalogue"))
	stockSvc := service.NewStockService(foodItemRepo, export.NewCSVExporter(true), pdf, activities, metrics, validate, logr.Named("stock"))
	stockSvc.UseCache(cacheSvc)
	settingsSvc := service.NewSettingsService(settingRepo, activities, validate, logr.Named("settings"))

	router := ocr.Router{PDF: ocr.NewPDFText()}
	if cfg.Vision.Enabled {
		router.Vision = ocr.NewVision(cfg.Vision.APIKey, cfg.Vision.Model, cfg.Vision.MaxTokens)
	}
	ingestionSvc := service.NewIngestionService(router, stockSvc, metrics, logr.Named("ingestion"))

	submissions := jobs.NewQueue("submissions", requestSvc.HandleSubmission, jobs.QueueConfig{
		Workers:    cfg.Ingestion.Workers,
		BufferSize: cfg.Ingestion.BufferSize,
		Logger:     logr.Named("jobs"),
	})
	submissions.Start(ctx)
	defer submissions.Stop()
	requestSvc.UseQueue(submissions)

	if err := userSvc.Bootstrap(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		logr.Sugar().Warnw("super admin bootstrap skipped", "error", err)
	}
	activities.StartPruner(ctx, cfg.Activities.PruneInterval)

	hub := realtime.NewHub(logr.Named("realtime"))
	service.RegisterSnapshotLoaders(hub, service.SnapshotSources{
		Requests:   requestRepo,
		FoodItems:  foodItemRepo,
		Vendors:    vendorRepo,
		Users:      userRepo,
		Activities: activities,
		Settings:   settingsSvc,
	})
	go hub.Run(ctx)
	if cfg.Realtime.Enabled {
		listener := realtime.NewPQListener(database.DSN(cfg.Database), cfg.Realtime.MinReconnectInterval, cfg.Realtime.MaxReconnectInterval, logr.Named("realtime"))
		go func() {
			if err := realtime.Pump(ctx, listener, hub, logr.Named("realtime")); err != nil {
				logr.Error("realtime listener stopped", zap.Error(err))
			}
		}()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", cfg.APIPrefix+"/subscribe"))

	handler.Register(r, cfg.APIPrefix, authSvc, handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc, handler.CookieOptions{Domain: cfg.JWT.CookieDomain, Secure: cfg.JWT.CookieSecure}),
		Requests:      handler.NewRequestHandler(requestSvc, reviewSvc, forwardingSvc),
		Notifications: handler.NewNotificationHandler(notifications),
		Catalogue:     handler.NewCatalogueHandler(catalogueSvc),
		Stock:         handler.NewStockHandler(stockSvc, ingestionSvc),
		Users:         handler.NewUserHandler(userSvc),
		Settings:      handler.NewSettingsHandler(settingsSvc, activities),
		Subscribe:     handler.NewSubscribeHandler(hub),
		Files:         handler.NewFileHandler(uploads),
		Metrics:       handler.NewMetricsHandler(metrics),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
