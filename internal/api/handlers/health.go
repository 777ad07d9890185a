package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dom/account-market/internal/repository"
	"go.uber.org/zap"
)

type HealthHandler struct {
	store repository.Pinger
	log   *zap.Logger
}

func NewHealthHandler(store repository.Pinger, log *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, log: log}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		http.Error(w, "Database service unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("OK"))
}
