// Package main is the entry point for the tinylink server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tinylink/tinylink/internal/cache"
	"github.com/tinylink/tinylink/internal/config"
	"github.com/tinylink/tinylink/internal/database"
	"github.com/tinylink/tinylink/internal/handlers"
	"github.com/tinylink/tinylink/internal/idgen"
	"github.com/tinylink/tinylink/internal/repository"
	"github.com/tinylink/tinylink/internal/server"
	"github.com/tinylink/tinylink/internal/services"
	"github.com/tinylink/tinylink/internal/validation"
	"github.com/tinylink/tinylink/pkg/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply pending migrations and exit")
	flag.Parse()

	if err := run(*migrateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(migrateOnly bool) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewWithFormat(os.Stdout, cfg.App.LogLevel, cfg.App.LogFormat)
	if cfg.App.WeakSecret() {
		log.Warn("SECRET_KEY not set, flash cookies are signed with the development default", "env", cfg.App.Env)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close store", "error", err)
		}
	}()
	log.Info("store connected", "dialect", db.Dialect.String())

	migrator, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	applied, err := migrator.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	version, err := migrator.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	log.Info("migrations applied", "count", applied, "version", version)
	if migrateOnly {
		return nil
	}

	var repo repository.URLRepository = repository.NewSQLURLRepository(db)
	health := handlers.NewHealthHandler()
	health.AddCheck("store", db.HealthCheck)

	if cfg.Redis.Enabled() {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, continuing without code cache", "error", err)
		} else {
			defer func() {
				if err := redisCache.Close(); err != nil {
					log.Error("failed to close redis", "error", err)
				}
			}()
			codes := cache.NewCodeCache(redisCache, "", cfg.Redis.CacheTTL)
			repo = repository.NewCachedURLRepository(repo, codes, log)
			health.AddOptionalCheck("cache", codes.Ping)
			log.Info("redis code cache enabled", "ttl", cfg.Redis.CacheTTL.String())
		}
	}

	validator := validation.New(validation.Config{
		MaxURLLength:      validation.DefaultConfig().MaxURLLength,
		BlockPrivateHosts: cfg.URL.BlockPrivateHosts,
		BlockedHosts:      cfg.URL.BlockedHosts,
	})
	codes := idgen.NewUniqueGenerator(
		idgen.NewRandomGenerator(cfg.URL.ShortCodeLen),
		repo,
		cfg.URL.MaxGenerateAttempts,
	)
	urlService := services.NewURLService(repo, codes, validator, log)
	redirectService := services.NewRedirectService(repo)

	flash := handlers.NewFlashStore(cfg.App.SecretKey, cfg.App.IsProduction())
	web, err := handlers.NewWebHandler(urlService, flash, cfg.URL.BaseURL, cfg.URL.RecentLimit, log)
	if err != nil {
		return err
	}

	srv := server.New(cfg, log, server.Handlers{
		Health:   health,
		Web:      web,
		Redirect: handlers.NewRedirectHandler(redirectService, flash, log),
		API:      handlers.NewURLHandler(urlService, cfg.URL.BaseURL, cfg.URL.APIListLimit, log),
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
		return errors.New("server stopped unexpectedly")
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
