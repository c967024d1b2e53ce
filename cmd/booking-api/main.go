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
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/noah-isme/crew-booking-api/internal/handler"
	"github.com/noah-isme/crew-booking-api/internal/middleware"
	"github.com/noah-isme/crew-booking-api/internal/repository"
	"github.com/noah-isme/crew-booking-api/internal/service"
	"github.com/noah-isme/crew-booking-api/pkg/cache"
	"github.com/noah-isme/crew-booking-api/pkg/calendarapi"
	"github.com/noah-isme/crew-booking-api/pkg/config"
	"github.com/noah-isme/crew-booking-api/pkg/database"
	"github.com/noah-isme/crew-booking-api/pkg/export"
	"github.com/noah-isme/crew-booking-api/pkg/jobs"
	"github.com/noah-isme/crew-booking-api/pkg/logger"
	"github.com/noah-isme/crew-booking-api/pkg/messaging"
	corsmiddleware "github.com/noah-isme/crew-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/crew-booking-api/pkg/middleware/requestid"
	"github.com/noah-isme/crew-booking-api/pkg/secret"
)

// @title Crew Booking API
// @version 1.0.0
// @description Crew assignment booking, conflict detection, gantt views and calendar sync
// @BasePath /api/v1
// @schemes http https

type mailer interface {
	PublishJSON(ctx context.Context, v interface{}) error
	Close() error
}

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
		if version, err := database.MigrationVersion(context.Background(), db); err == nil {
			logr.Info("database schema ready", zap.Int64("version", version))
		}
	}

	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, gantt cache disabled", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, "crew", cfg.Gantt.CacheTTL, logr, redisClient != nil)

	var mail mailer
	if cfg.RabbitMQ.URL != "" {
		publisher, err := messaging.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.MailQueue, cfg.RabbitMQ.PublishTimeout, logr)
		if err != nil {
			logr.Fatal("failed to connect rabbitmq", zap.Error(err))
		}
		mail = publisher
	} else {
		mail = messaging.NewLogPublisher(logr)
	}
	defer mail.Close() //nolint:errcheck

	validate := validator.New()

	assignmentRepo := repository.NewAssignmentRepository(db)
	dayRepo := repository.NewAssignmentDayRepository(db)
	excludedRepo := repository.NewExcludedDateRepository(db)
	connectionRepo := repository.NewCalendarConnectionRepository(db, secret.NewBox(cfg.Calendar.TokenEncryptionKey))
	eventRepo := repository.NewSyncedEventRepository(db)
	overrideRepo := repository.NewConflictOverrideRepository(db)
	confirmationRepo := repository.NewConfirmationRepository(db)

	tokenSvc := service.NewTokenService(connectionRepo, service.TokenServiceConfig{
		OAuth:         oauthConfig(cfg.Calendar),
		RefreshBuffer: cfg.Calendar.RefreshBuffer,
		Timeout:       cfg.Sync.ExternalTimeout,
	}, metricsSvc, logr)
	calendarClient := calendarapi.New(cfg.Calendar.APIBaseURL, nil)

	syncSvc := service.NewCalendarSyncService(assignmentRepo, dayRepo, connectionRepo, eventRepo, tokenSvc, calendarClient, service.CalendarSyncConfig{
		BatchSize:       cfg.Sync.BatchSize,
		ExternalTimeout: cfg.Sync.ExternalTimeout,
		FullSyncTimeout: cfg.Sync.FullSyncTimeout,
		MaxErrorReports: cfg.Sync.MaxErrorReports,
		TimeZone:        cfg.Calendar.TimeZone,
	}, metricsSvc, logr)

	dispatcher := service.NewSyncDispatcher(syncSvc, jobs.QueueConfig{
		Workers:    cfg.Sync.Workers,
		BufferSize: cfg.Sync.QueueSize,
		MaxRetries: cfg.Sync.MaxRetries,
		RetryDelay: cfg.Sync.RetryDelay,
		JobTimeout: 4 * cfg.Sync.ExternalTimeout,
		Logger:     logr,
	}, metricsSvc, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher.Start(rootCtx)
	defer dispatcher.Stop()

	notifier := service.MutationNotifier{Sync: dispatcher, Cache: cacheSvc, Logger: logr}

	conflictSvc := service.NewConflictService(assignmentRepo, overrideRepo, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, dayRepo, excludedRepo, conflictSvc, notifier, validate, logr)
	daySvc := service.NewAssignmentDayService(assignmentRepo, dayRepo, notifier, validate, logr)
	excludedSvc := service.NewExcludedDateService(assignmentRepo, excludedRepo, notifier, validate, logr)
	bulkSvc := service.NewBulkService(assignmentRepo, excludedSvc, notifier, validate, logr)
	ganttSvc := service.NewGanttService(assignmentRepo, dayRepo, cacheSvc, cfg.Gantt.CacheTTL, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	connectionSvc := service.NewCalendarConnectionService(connectionRepo, assignmentRepo, tokenSvc, cfg.Calendar.Provider, cfg.Calendar.StateSecret, logr)
	confirmationSvc := service.NewConfirmationService(confirmationRepo, assignmentRepo, bulkSvc, mail, service.ConfirmationConfig{
		Secret:  cfg.Confirmations.Secret,
		TTL:     cfg.Confirmations.TTL,
		BaseURL: cfg.Confirmations.BaseURL,
	}, validate, logr)

	if cfg.KeepAlive.Enabled {
		keepAlive := service.NewKeepAliveService(connectionRepo, tokenSvc, calendarClient, cfg.KeepAlive.Interval, cfg.Sync.ExternalTimeout, metricsSvc, logr)
		keepAlive.Start(rootCtx)
		defer keepAlive.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	registerRoutes(r, cfg, handlers{
		assignments:   handler.NewAssignmentHandler(assignmentSvc, daySvc, bulkSvc),
		excluded:      handler.NewExcludedDateHandler(excludedSvc, bulkSvc),
		conflicts:     handler.NewConflictHandler(conflictSvc),
		gantt:         handler.NewGanttHandler(ganttSvc),
		calendar:      handler.NewCalendarHandler(connectionSvc, syncSvc),
		confirmations: handler.NewConfirmationHandler(confirmationSvc),
		metrics:       handler.NewMetricsHandler(metricsSvc, readinessChecks(db, cacheRepo, redisClient != nil)),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func oauthConfig(cfg config.CalendarConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func readinessChecks(db *sqlx.DB, cacheRepo *repository.CacheRepository, cacheEnabled bool) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if cacheEnabled {
		checks["redis"] = cacheRepo.Ping
	}
	return checks
}
