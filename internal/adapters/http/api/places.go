// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"

	"github.com/pedra/atlas/internal/domain/model"
	"github.com/pedra/atlas/internal/domain/types"
)

// PlacesHandler handles place search requests.
type PlacesHandler struct {
	deps Dependencies
}

// NewPlacesHandler creates a new places handler.
func NewPlacesHandler(deps Dependencies) *PlacesHandler {
	return &PlacesHandler{deps: deps}
}

// HandleNearby handles GET /api/places/nearby requests.
// Required query params: lat, lng. Optional: radius, keyword, type.
func (h *PlacesHandler) HandleNearby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

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
	radius, _, err := queryFloat(r, "radius")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	q := r.URL.Query()
	results, err := h.deps.SearchNearby(r.Context(), types.NearbySearch{
		Lat:     lat,
		Lng:     lng,
		Radius:  radius,
		Keyword: q.Get("keyword"),
		Type:    q.Get("type"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []model.Location{}
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleSearch handles GET /api/places/search requests.
// Required query param: query. Optional: lat, lng, radius.
func (h *PlacesHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	req := types.TextSearch{Query: r.URL.Query().Get("query")}

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
	if hasLat && hasLng {
		req.Lat, req.Lng = &lat, &lng
	}
	if req.Radius, _, err = queryFloat(r, "radius"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	results, err := h.deps.SearchText(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []model.Location{}
	}
	writeJSON(w, http.StatusOK, results)
}

// parseTimeParam parses an optional RFC3339 query parameter.
func parseTimeParam(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
