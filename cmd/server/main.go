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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	config "github.com/Akiyuki89/my-best-ddd-architecture/configs"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/application/services"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/db"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/email"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/health"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/httpserver"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/metrics"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/redis"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/repositories"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/utils"
)

const (
	serviceName    = "account-service"
	serviceVersion = "1.0.0"
)

// application is the assembled process. Accounts is the entry point for
// the transport layer mounted on top of this module.
type application struct {
	Accounts ports.AccountService
	Ops      *httpserver.Server
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := newLogger(cfg.Log)
	logger.WithField("environment", cfg.Server.Environment).Info("starting account service")

	database, err := db.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(cfg.Database.MigrationsPath); err != nil {
		logger.WithError(err).Fatal("failed to run migrations")
	}

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()

	stateStore := redis.NewEphemeralStore(redisClient, "")
	stateRepo := repositories.NewAccountStateRepository(stateStore, cfg.Security.BlockDuration, logger)

	var accountRepo ports.AccountRepository = repositories.NewAccountRepository(database, logger)
	if cfg.Cache.Enabled {
		cacheStore := redis.NewEphemeralStore(redisClient, cfg.Cache.Prefix)
		accountRepo = repositories.NewCachingAccountRepository(accountRepo, cacheStore, cfg.Cache.TTL, logger)
	}

	sender, err := email.NewSendGridSender(&cfg.Email, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize email sender")
	}

	events, err := metrics.NewAccountEventCounter(prometheus.DefaultRegisterer)
	if err != nil {
		logger.WithError(err).Fatal("failed to register account metrics")
	}

	app := application{}
	app.Accounts = services.NewAccountService(
		accountRepo,
		stateRepo,
		utils.NewBcryptHasher(cfg.Security.BcryptCost),
		services.NewJWTTokenIssuer(&cfg.JWT),
		sender,
		events,
		services.AccountServiceConfig{
			MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
			ResetBaseURL:     cfg.Email.ResetBaseURL,
		},
		logger,
	)
	logger.WithFields(logrus.Fields{
		"max_login_attempts": cfg.Security.MaxLoginAttempts,
		"block_duration":     cfg.Security.BlockDuration.String(),
		"account_cache":      cfg.Cache.Enabled,
	}).Info("account service ready")

	app.Ops = httpserver.NewServer(&httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
		Environment:  cfg.Server.Environment,
		ServiceName:  serviceName,
		Version:      serviceVersion,
	}, logger,
		health.NewDBHealthChecker(database),
		health.NewRedisHealthChecker(redisClient),
	)

	go func() {
		if err := app.Ops.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("ops server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Ops.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("ops server forced to shutdown")
	}

	logger.Info("account service exited")
}
