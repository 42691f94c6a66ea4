package handler

import (
	"context"
	"log/slog"
	"net/http"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store pinger
}

func NewHealthHandler(store pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "hello world")
}

// Ready reports whether the credential store answers.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Warn("readiness check failed", "error", err)
		writeMessage(w, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	writeMessage(w, http.StatusOK, "ready")
}
