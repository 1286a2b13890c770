package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/projectbackdoor/game-server/internal/services"
	"github.com/projectbackdoor/game-server/internal/storage"
)

type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Service    string                 `json:"service"`
	Sessions   int                    `json:"sessions"`
	Components map[string]interface{} `json:"components"`
}

// SessionCounter reports the number of live game sessions.
type SessionCounter interface {
	Len() int
}

type HealthHandler struct {
	store    storage.Storage
	llm      services.LLMService
	sessions SessionCounter
	logger   *slog.Logger
}

func NewHealthHandler(store storage.Storage, llm services.LLMService, sessions SessionCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:    store,
		llm:      llm,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	components := make(map[string]interface{})
	overallStatus := "healthy"

	// Test storage connection
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["storage"] = "healthy"
	}

	// The LLM interface has no ping; readiness means a provider was
	// constructed and its model initialized at startup.
	if h.llm != nil {
		components["llm"] = "ready"
	} else {
		components["llm"] = "not_configured"
		overallStatus = "degraded"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "game-server",
		Components: components,
	}
	if h.sessions != nil {
		response.Sessions = h.sessions.Len()
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}
