// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	service "github.com/pedra/atlas/internal/app"
	"github.com/pedra/atlas/internal/domain/model"
	"github.com/pedra/atlas/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to the aggregation core.
type Dependencies interface {
	SearchNearby(ctx context.Context, req types.NearbySearch) ([]model.Location, error)
	SearchText(ctx context.Context, req types.TextSearch) ([]model.Location, error)
	Photo(ctx context.Context, photoReference string, maxWidth int) ([]byte, string, error)

	SearchEvents(ctx context.Context, req types.EventSearch) ([]model.Event, error)
	UserEvents(ctx context.Context, ownerID string) ([]model.Event, error)
	CreateEvent(ctx context.Context, req types.NewEvent) (model.Event, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	placesHandler *PlacesHandler
	photoHandler  *PhotoHandler
	eventsHandler *EventsHandler
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, pinger Pinger, statsProvider StatsProvider) *Server {
	return &Server{
		placesHandler: NewPlacesHandler(deps),
		photoHandler:  NewPhotoHandler(deps),
		eventsHandler: NewEventsHandler(deps),
		healthHandler: NewHealthHandler(pinger),
		statsHandler:  NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/places/nearby", MetricsMiddleware(s.placesHandler.HandleNearby, "places_nearby"))
	mux.HandleFunc("/api/places/search", MetricsMiddleware(s.placesHandler.HandleSearch, "places_search"))
	mux.HandleFunc("/api/places/photo", MetricsMiddleware(s.photoHandler.HandlePhoto, "places_photo"))
	mux.HandleFunc("/api/events", MetricsMiddleware(s.eventsHandler.HandleEvents, "events"))
	mux.HandleFunc("/api/events/user/", MetricsMiddleware(s.eventsHandler.HandleUserEvents, "events_user"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps aggregation error kinds onto HTTP statuses.
// An empty result is never an error; only genuine failures land here.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, service.ErrAggregation):
		writeError(w, http.StatusBadGateway, "search_unavailable", err)
	case errors.Is(err, service.ErrPersistence):
		writeError(w, http.StatusInternalServerError, "persistence_failure", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// queryFloat parses an optional float query parameter. The bool
// reports presence; a present-but-garbled value is an error.
func queryFloat(r *http.Request, key string) (float64, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, errors.New("invalid " + key)
	}
	return v, true, nil
}

func queryInt(r *http.Request, key string) (int, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, errors.New("invalid " + key)
	}
	return v, true, nil
}
