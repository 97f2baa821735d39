package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ViniDeiro/newalavancagem/config"
	"github.com/ViniDeiro/newalavancagem/internal/api"
	"github.com/ViniDeiro/newalavancagem/internal/auth"
	"github.com/ViniDeiro/newalavancagem/internal/cache"
	"github.com/ViniDeiro/newalavancagem/internal/database"
	"github.com/ViniDeiro/newalavancagem/internal/leverage"
	"github.com/ViniDeiro/newalavancagem/internal/logging"
	"github.com/ViniDeiro/newalavancagem/internal/secrets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		panic(err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	logger.Info().Str("driver", cfg.Store.Driver).Msg("starting leverage tracker")

	ctx := context.Background()

	// The JWT secret comes from Vault when enabled, otherwise from the
	// environment.
	jwtSecret := cfg.Auth.JWTSecret
	if cfg.Vault.Enabled {
		vaultClient, err := secrets.NewClient(secrets.VaultConfig{
			Enabled:    true,
			Address:    cfg.Vault.Address,
			Token:      cfg.Vault.Token,
			MountPath:  cfg.Vault.MountPath,
			SecretPath: cfg.Vault.SecretPath,
			TLSEnabled: cfg.Vault.TLSEnabled,
			CACert:     cfg.Vault.CACert,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create vault client")
		}
		jwtSecret, err = vaultClient.JWTSecret(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to fetch JWT secret from vault")
		}
		logger.Info().Msg("JWT secret loaded from vault")
	}
	if jwtSecret == "" {
		logger.Fatal().Msg("JWT_SECRET is required (or enable vault)")
	}

	store, err := database.Open(ctx, database.Config{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
		SQLitePath:  cfg.Store.SQLitePath,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close()

	// The login limiter is optional; without Redis logins are simply
	// unthrottled.
	var limiter auth.LoginLimiter
	if cfg.Redis.Enabled {
		redisLimiter, err := cache.NewLoginLimiter(ctx, cache.LoginLimiterConfig{
			Address:       cfg.Redis.Address,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			MaxAttempts:   cfg.Auth.MaxLoginAttempts,
			LockoutWindow: cfg.Auth.LockoutWindow,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect login limiter")
		}
		defer redisLimiter.Close()
		limiter = redisLimiter
	}

	authService, err := auth.NewService(store, auth.Config{
		JWTSecret:         jwtSecret,
		TokenDuration:     cfg.Auth.TokenDuration,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
		BcryptCost:        cfg.Auth.BcryptCost,
	}, limiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create auth service")
	}

	levService := leverage.NewService(store, logger)

	server := api.NewServer(api.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		StaticDir:      cfg.Server.StaticDir,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		ProductionMode: true,
	}, store, authService, levService, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}
