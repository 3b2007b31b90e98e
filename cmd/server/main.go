package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/edufam/edufam-backend/internal/api"
	"github.com/edufam/edufam-backend/internal/config"
	"github.com/edufam/edufam-backend/internal/logger"
	"github.com/edufam/edufam-backend/internal/metrics"
	"github.com/edufam/edufam-backend/internal/repository/postgres"
	"github.com/edufam/edufam-backend/internal/ratelimit"
	"github.com/edufam/edufam-backend/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const appname = "edufam"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.IsProduction())
	if !cfg.IsProduction() {
		displayAppname(appname)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := postgres.NewConnection(ctx, postgres.Options{
		DatabaseURL: cfg.DatabaseURL,
		LogLevel:    cfg.DatabaseLogLevel,
		Attempts:    cfg.DBConnectTries,
		RetryDelay:  cfg.DBConnectRetryDelay(),
	}, log)
	if err != nil {
		return err
	}
	defer postgres.Close(db)

	if cfg.DatabaseMigrate {
		if err := postgres.Migrate(ctx, db, log); err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize repositories
	caps := postgres.ProbeCapabilities(db, log)
	m.SetFingerprintAvailable(caps.RefreshTokenFingerprint)
	repos := postgres.NewRepositories(db, caps)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		log.Info().Msg("rate limits shared through redis")
	}

	// Initialize services
	services, err := service.NewServices(repos, cfg, m, log)
	if err != nil {
		return err
	}

	go services.RefreshTokens.RunPurger(ctx, cfg.RefreshPurgePeriod, cfg.RefreshRetention)

	router := api.NewRouter(api.Deps{
		Services: services,
		Config:   cfg,
		Limiters: api.NewLimiters(cfg.RateLimit, redisClient),
		Metrics:  m,
		Gatherer: registry,
		DB:       db,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	return shutdown(srv)
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
