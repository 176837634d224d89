package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cloudlab/internal/cloud"
	"github.com/iliyamo/cloudlab/internal/config"
	"github.com/iliyamo/cloudlab/internal/database"
	"github.com/iliyamo/cloudlab/internal/handler"
	"github.com/iliyamo/cloudlab/internal/job"
	"github.com/iliyamo/cloudlab/internal/logger"
	"github.com/iliyamo/cloudlab/internal/middleware"
	"github.com/iliyamo/cloudlab/internal/model"
	"github.com/iliyamo/cloudlab/internal/provisioner"
	"github.com/iliyamo/cloudlab/internal/queue"
	"github.com/iliyamo/cloudlab/internal/repository"
	"github.com/iliyamo/cloudlab/internal/router"
	"github.com/iliyamo/cloudlab/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := logger.Init(logger.Options{
		Level:     cfg.LogLevel,
		JSON:      cfg.IsProd(),
		SentryDSN: cfg.SentryDSN,
		Env:       cfg.Env,
	}); err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	if err != nil {
		logger.Errorf("database: %v", err)
		return
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Errorf("schema: %v", err)
		return
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warningf("redis unavailable at %s; using in-process rate limiting and no response cache", cfg.Redis.Addr)
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.Events.Enabled {
		events = service.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Queue)
		go func() {
			if err := queue.StartActivityConsumer(ctx, cfg.Events.URL, cfg.Events.Queue, "logs"); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("activity consumer stopped: %v", err)
			}
		}()
	}

	launchers := cloud.Registry{}
	if aws, err := cloud.NewAWSLauncher(ctx, cfg.AWS); err != nil {
		logger.Warningf("aws launcher disabled: %v", err)
	} else {
		launchers[model.ProviderAWS] = aws
	}

	users := repository.NewUserRepo(db)
	assignments := repository.NewAssignmentRepo(db)
	sessions := service.NewSessionService(assignments, launchers, events)

	expiry, err := job.Schedule(cfg.ExpirySchedule, job.NewExpiryJob(assignments, sessions))
	if err != nil {
		logger.Errorf("expiry job: %v", err)
		return
	}
	defer expiry.Stop()

	h := router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db)),
		Users:         handler.NewUserAdminHandler(users, repository.NewStatsRepo(db)),
		Catalogue:     handler.NewCatalogueHandler(repository.NewLabRepo(db)),
		Assignments:   handler.NewAssignmentHandler(assignments, events),
		Instances:     handler.NewInstanceHandler(repository.NewInstanceRepo(db)),
		Configuration: handler.NewConfigurationHandler(repository.NewConfigurationRepo(db)),
		Sessions:      handler.NewSessionHandler(sessions),
		Provision:     handler.NewProvisionHandler(provisioner.NewRunner(cfg.Provision.Command, cfg.Provision.Timeout)),
	}

	metrics := middleware.NewHTTPMetrics()
	e := echo.New()
	e.HideBanner = true
	e.Use(metrics.Middleware())
	e.Use(middleware.RequestLog())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))

	opts := router.Options{
		JWTSecret: cfg.JWTSecret,
		Cache:     cfg.Cache,
		RateLimit: cfg.RateLimit,
		Redis:     rdb,
		DB:        db,
		Metrics:   metrics,
	}
	router.RegisterRoutes(e, opts)
	router.RegisterAPI(e, h, opts)

	addr := ":" + cfg.Port
	go func() {
		logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
