package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwebster45206/quest-weaver/internal/config"
	"github.com/jwebster45206/quest-weaver/internal/handlers"
	"github.com/jwebster45206/quest-weaver/internal/logger"
	"github.com/jwebster45206/quest-weaver/internal/middleware"
	"github.com/jwebster45206/quest-weaver/internal/services"
	redisstorage "github.com/jwebster45206/quest-weaver/internal/storage"
	"github.com/jwebster45206/quest-weaver/pkg/session"
	"github.com/jwebster45206/quest-weaver/pkg/storage"
	"github.com/jwebster45206/quest-weaver/pkg/textfilter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg, os.Stdout)

	log.Info("Starting Quest Weaver API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"storage", cfg.Storage)

	llmService, err := newLLMService(cfg, log)
	if err != nil {
		log.Error("Failed to create LLM service", "error", err)
		os.Exit(1)
	}

	store, err := newStorage(cfg, log)
	if err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	// Initialize the model on startup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := llmService.InitModel(ctx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	generator := services.Instrument(llmService, cfg.LLMProvider, services.NewMetrics(registry))

	opts := []session.Option{session.WithLockTTL(cfg.LockTTL)}
	if textfilter.ShouldFilterContent(cfg.ContentRating) {
		opts = append(opts, session.WithNarrationFilter(textfilter.NewProfanityFilter()))
		log.Info("Narration filter enabled", "content_rating", cfg.ContentRating)
	}
	controller := session.NewController(store, generator, log, opts...)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, llmService, cfg.ModelName, log))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	sessionHandler := handlers.NewSessionHandler(controller, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		// Generation calls are bounded by LLM_TIMEOUT.
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}

func newLLMService(cfg *config.Config, log *slog.Logger) (services.LLMService, error) {
	switch cfg.LLMProvider {
	case services.ProviderAnthropic:
		return services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, cfg.ContentRating, cfg.LLMTimeout, log), nil
	case services.ProviderOpenAI:
		return services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ModelName, cfg.ContentRating, cfg.LLMTimeout, log), nil
	case services.ProviderVenice:
		return services.NewVeniceService(cfg.VeniceAPIKey, cfg.ModelName, cfg.ContentRating, cfg.LLMTimeout, log), nil
	case services.ProviderOllama:
		return services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, cfg.ContentRating, cfg.LLMTimeout, log)
	case services.ProviderMock:
		log.Warn("Using mock LLM provider; responses are canned")
		return services.NewMockLLMAPI(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}

func newStorage(cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	if cfg.Storage != "redis" {
		log.Warn("Using in-memory storage; sessions are lost on restart")
		return storage.NewMemoryStorage(), nil
	}

	rs, err := redisstorage.NewRedisStorage(cfg.RedisURL, cfg.SessionTTL, log)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := rs.WaitForConnection(ctx, 30, 2*time.Second); err != nil {
		return nil, err
	}
	return rs, nil
}
