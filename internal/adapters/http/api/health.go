// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// Pinger reports backing store liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	pinger Pinger
}

// NewHealthHandler creates a new health handler. A nil pinger skips
// the store check.
func NewHealthHandler(pinger Pinger) *HealthHandler {
	return &HealthHandler{pinger: pinger}
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}

// HandleHealth handles GET /healthz requests. The store check is
// advisory: a degraded store still serves provider-backed searches,
// so the answer stays 200 with the store marked unreachable.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	resp := healthResponse{Status: "ok"}
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			resp.Store = "unreachable"
		} else {
			resp.Store = "ok"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
