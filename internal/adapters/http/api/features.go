package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// FeaturesHandler exposes feature vectors for debugging.
type FeaturesHandler struct {
	deps Dependencies
}

// NewFeaturesHandler creates a new features handler.
func NewFeaturesHandler(deps Dependencies) *FeaturesHandler {
	return &FeaturesHandler{deps: deps}
}

// HandleGetFeatures handles GET /features/{id} requests.
func (h *FeaturesHandler) HandleGetFeatures(w http.ResponseWriter, r *http.Request) {
	entry, err := h.deps.Features(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
