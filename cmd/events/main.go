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

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/medanalyzer/internal/adapters/events"
	"github.com/zatekoja/medanalyzer/internal/api/handlers"
	"github.com/zatekoja/medanalyzer/internal/api/middleware"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/clients/redis"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/observability"
	"github.com/zatekoja/medanalyzer/pkg/config"
	"github.com/zatekoja/medanalyzer/pkg/secrets"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := secrets.ApplyCredentials(ctx, secrets.LoadVaultConfigFromEnv()); err != nil {
		log.Warn().Err(err).Msg("Failed to load credentials from Vault")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-events", cfg.Environment)
	log.Info().Str("channel", cfg.Events.Channel).Msg("Starting analysis event stream")

	// Redis is required here regardless of REDIS_ENABLED
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis client")
	}
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	streamHandler := handlers.NewEventStreamHandler(eventBus, cfg.Events.Channel)

	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /api/stream/analyses", streamHandler.StreamAnalyses)
	mux.HandleFunc("GET /api/stream/stats", streamHandler.Stats)

	// Apply middleware
	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.CORSMiddleware(cfg.CORS.AllowedOrigins)(handler)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Events.StreamPort),
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// No write timeout for long-lived streams
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Event stream server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Event stream server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Event stream server shutting down...")

	// Closing the bus ends every open stream so Shutdown does not wait on them
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Event stream server stopped")
}
