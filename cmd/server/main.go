package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/avatarctic/account-lifecycle/configs"
	"github.com/avatarctic/account-lifecycle/internal/application/services"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/crypto"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/db"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/email"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/health"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/httpserver"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/redis"
	"github.com/avatarctic/account-lifecycle/internal/infrastructure/repositories"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting account lifecycle service...")

	// Secrets are checked before any connection is opened.
	codec, err := crypto.NewCodec(crypto.CodecConfig{
		Secret:    cfg.Crypto.SecretKey,
		Vector:    cfg.Crypto.Vector,
		Algorithm: cfg.Crypto.Algorithm,
	})
	if err != nil {
		logger.WithError(err).Fatal("Invalid verification code encryption settings")
	}

	tokens, err := services.NewTokenService(cfg.JWT.Secret)
	if err != nil {
		logger.WithError(err).Fatal("Invalid token settings")
	}

	database, err := db.Open(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close()

	logger.Info("Connected to database successfully")

	if err := database.Migrate(cfg.Database.MigrationsPath, logger); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	hcSlice := []ports.HealthChecker{health.NewDBHealthChecker(database)}

	accountRepo := repositories.NewAccountRepository(database, logger)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()

		logger.Info("Connected to Redis successfully")

		cache := redis.NewCache(redisClient, cfg.Account.CacheKeyNamespace)
		accountRepo = repositories.NewCachingAccountRepository(accountRepo, cache, cfg.Account.CacheTTL, logger)
		hcSlice = append(hcSlice, health.NewRedisHealthChecker(redisClient))
	} else {
		logger.Warn("Redis disabled - account reads go straight to the database")
	}

	dispatcher := email.NewDispatcher(email.Config{
		User:           cfg.Email.User,
		Password:       cfg.Email.Password,
		From:           cfg.Email.From,
		FromName:       cfg.Email.FromName,
		Host:           cfg.Email.Host,
		Port:           cfg.Email.Port,
		Secure:         cfg.Email.Secure,
		SendTimeout:    cfg.Email.SendTimeout,
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
	}, logger)

	renderer, err := email.NewRenderer(cfg.Email.AppName)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load email templates")
	}

	accountService := services.NewAccountService(accountRepo, codec, tokens, dispatcher, renderer, &services.AccountServiceConfig{
		VerificationTokenTTL: cfg.JWT.VerificationTokenTTL,
		AccessTokenTTL:       cfg.JWT.AccessTokenTTL,
		ResetTokenTTL:        cfg.Account.ResetTokenTTL,
		PasswordCost:         cfg.Account.PasswordCost,
		Retry: services.RetryPolicy{
			MaxAttempts: cfg.Account.EmailMaxAttempts,
			Delay:       cfg.Account.EmailRetryDelay,
		},
		ResetURL: cfg.Account.ResetURL,
	}, logger)

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Version:        cfg.Server.Version,
	}

	server := httpserver.NewServer(serverConfig, logger, httpserver.ServerDeps{
		AccountService: accountService,
		Tokens:         tokens,
		HealthCheckers: hcSlice,
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
