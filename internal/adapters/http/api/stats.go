// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// StatsProvider exposes the aggregation core's runtime counters.
type StatsProvider interface {
	QueueLen(ctx context.Context) int
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	stats := map[string]any{
		"writeback_queue_len": 0,
	}
	if h.statsProvider != nil {
		stats["writeback_queue_len"] = h.statsProvider.QueueLen(r.Context())
	}
	writeJSON(w, http.StatusOK, stats)
}
