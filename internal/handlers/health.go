package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/quest-weaver/internal/services"
	"github.com/jwebster45206/quest-weaver/pkg/storage"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

type HealthHandler struct {
	storage    storage.Storage
	llmService services.LLMService
	modelName  string
	logger     *slog.Logger
}

func NewHealthHandler(storage storage.Storage, llmService services.LLMService, modelName string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage:    storage,
		llmService: llmService,
		modelName:  modelName,
		logger:     logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["storage"] = "healthy"
	}

	ready, err := h.llmService.IsModelReady(ctx, h.modelName)
	switch {
	case err != nil:
		h.logger.Warn("LLM health check failed", "error", err)
		components["llm"] = "unhealthy"
		overallStatus = "degraded"
	case !ready:
		components["llm"] = "model not ready"
		overallStatus = "degraded"
	default:
		components["llm"] = "healthy"
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, statusCode, HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "quest-weaver",
		Components: components,
	})
}
