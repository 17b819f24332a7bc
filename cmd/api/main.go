package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/medanalyzer/internal/adapters/events"
	"github.com/zatekoja/medanalyzer/internal/api/handlers"
	"github.com/zatekoja/medanalyzer/internal/api/routes"
	"github.com/zatekoja/medanalyzer/internal/application/services"
	"github.com/zatekoja/medanalyzer/internal/domain/providers"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/clients/gemini"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/clients/openai"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/clients/rapidapi"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/clients/redis"
	"github.com/zatekoja/medanalyzer/internal/infrastructure/observability"
	"github.com/zatekoja/medanalyzer/pkg/config"
	"github.com/zatekoja/medanalyzer/pkg/secrets"
)

func main() {
	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pull credentials from Vault before reading the environment
	vaultResult, vaultErr := secrets.ApplyCredentials(ctx, secrets.LoadVaultConfigFromEnv())

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize structured logging
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	log.Info().
		Str("service", cfg.OTEL.ServiceName).
		Str("version", cfg.OTEL.ServiceVersion).
		Str("env", cfg.Environment).
		Str("generation_provider", cfg.Generation.Provider).
		Str("prompt_language", cfg.Generation.Language).
		Msg("Starting MedAnalyzer API")

	if vaultErr != nil {
		log.Warn().Err(vaultErr).Str("path", vaultResult.Path).Msg("Failed to load credentials from Vault")
	} else if vaultResult.Enabled {
		log.Info().Strs("loaded", vaultResult.Loaded).Strs("skipped", vaultResult.Skipped).Msg("Credentials loaded from Vault")
	}

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Missing credentials do not stop the server; every analysis fails fast instead
	missing := cfg.MissingCredentials()
	if len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("Credentials not set; analysis requests will be rejected")
	}

	var diagnosisProvider providers.DiagnosisProvider
	if cfg.RapidAPI.APIKey != "" {
		rapidClient, err := rapidapi.NewClient(&cfg.RapidAPI)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize diagnosis client")
		}
		diagnosisProvider = rapidClient
	}

	generationProvider, err := newGenerationProvider(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Generation.Provider).Msg("Failed to initialize generation client")
	}

	// Initialize event bus if Redis is enabled
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Redis client; analysis events disabled")
		} else {
			defer redisClient.Close()
			eventBus = events.NewRedisEventBus(redisClient)
			log.Info().Str("channel", cfg.Events.Channel).Msg("Event bus initialized successfully")
		}
	}

	// Initialize services
	analysisService := services.NewAnalysisService(diagnosisProvider, generationProvider, services.AnalysisOptions{
		Language:           cfg.Generation.Language,
		MissingCredentials: missing,
		EventBus:           eventBus,
		EventChannel:       cfg.Events.Channel,
		Metrics:            metrics,
	})

	// Initialize handlers
	analysisHandler := handlers.NewAnalysisHandler(analysisService)
	formHandler := handlers.NewFormHandler(analysisService)

	// Set up router
	router := routes.NewRouter(analysisHandler, formHandler, cfg.CORS.AllowedOrigins, metrics)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}

// newGenerationProvider builds the configured generation client, or returns
// nil when its credential is missing.
func newGenerationProvider(ctx context.Context, cfg *config.Config) (providers.GenerationProvider, error) {
	if cfg.GenerationAPIKey() == "" {
		return nil, nil
	}

	if cfg.Generation.Provider == config.ProviderOpenAI {
		client, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	client, err := gemini.NewClient(ctx, &cfg.Gemini)
	if err != nil {
		return nil, err
	}
	return client, nil
}
