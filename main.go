package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/veeranidhish-7/Automated-Price-Monitory/config"
	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/api"
	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/checker"
	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/scraper"
	"github.com/veeranidhish-7/Automated-Price-Monitory/internal/store"
	"github.com/veeranidhish-7/Automated-Price-Monitory/logger"
	"github.com/veeranidhish-7/Automated-Price-Monitory/services/cache"
	"github.com/veeranidhish-7/Automated-Price-Monitory/services/notifier"
	"github.com/veeranidhish-7/Automated-Price-Monitory/services/publisher"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("check_interval", cfg.CheckInterval).
		Str("listen_addr", cfg.ListenAddr).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Storage
	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer st.Close()

	// Rate-limit cooldown cache: memcache when configured, else in-process
	var cooldown cache.CacheService
	if cfg.MemcacheAddr != "" {
		cooldown = cache.NewMemcacheService(cfg.MemcacheAddr)
		log.Info().Str("addr", cfg.MemcacheAddr).Msg("Using memcache cooldown store")
	} else {
		cooldown = cache.NewMemoryService()
	}

	// Alert event stream, optional
	var pub publisher.Publisher
	if cfg.RedisAddr != "" {
		pub = publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB,
			cfg.RedisStream, cfg.RedisStreamMaxLength)
		defer pub.Close()
		log.Info().
			Str("addr", cfg.RedisAddr).
			Str("stream", cfg.RedisStream).
			Msg("Publishing alert events to Redis")
	}

	sc := scraper.New(cfg.RequestTimeout, cooldown, cfg.RateLimitBlock)
	smtp := notifier.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)

	chk := checker.New(st, sc, smtp, pub, cfg.CheckInterval, cfg.WorkerLimit)
	go chk.Start(ctx)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.New(st, sc, chk, cfg.JWTSecret, cfg.MaxProductsPerUser),
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		serverDone <- srv.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server exited with error")
		}
	}

	// Graceful shutdown
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("Shutting down gracefully...")
}
