// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pedra/atlas/internal/domain/model"
	"github.com/pedra/atlas/internal/domain/types"
)

// EventsHandler handles event search and creation requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleEvents dispatches GET (search) and POST (create) on
// /api/events.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleSearch(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleSearch handles GET /api/events requests.
// Required query params: lat, lng. Optional: radius, start, end
// (RFC3339).
func (h *EventsHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	lat, hasLat, err := queryFloat(r, "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lng, hasLng, err := queryFloat(r, "lng")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if !hasLat || !hasLng {
		writeError(w, http.StatusBadRequest, "invalid_request", ErrBadRequest)
		return
	}

	req := types.EventSearch{Lat: lat, Lng: lng}
	if req.Radius, _, err = queryFloat(r, "radius"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Start, err = parseTimeParam(r, "start"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.End, err = parseTimeParam(r, "end"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	results, err := h.deps.SearchEvents(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []model.Event{}
	}
	writeJSON(w, http.StatusOK, results)
}

// handleCreate handles POST /api/events requests.
func (h *EventsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req types.NewEvent
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	created, err := h.deps.CreateEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUserEvents handles GET /api/events/user/{id} requests.
func (h *EventsHandler) HandleUserEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	ownerID := strings.TrimPrefix(r.URL.Path, "/api/events/user/")
	if ownerID == "" || strings.Contains(ownerID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", ErrBadRequest)
		return
	}

	results, err := h.deps.UserEvents(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []model.Event{}
	}
	writeJSON(w, http.StatusOK, results)
}
