// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// PhotoHandler proxies provider photo fetches.
type PhotoHandler struct {
	deps Dependencies
}

// NewPhotoHandler creates a new photo handler.
func NewPhotoHandler(deps Dependencies) *PhotoHandler {
	return &PhotoHandler{deps: deps}
}

// HandlePhoto handles GET /api/places/photo requests.
// Required query param: ref. Optional: maxwidth.
func (h *PhotoHandler) HandlePhoto(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	ref := r.URL.Query().Get("ref")
	if ref == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", ErrBadRequest)
		return
	}
	maxWidth, _, err := queryInt(r, "maxwidth")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	body, contentType, err := h.deps.Photo(r.Context(), ref, maxWidth)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
