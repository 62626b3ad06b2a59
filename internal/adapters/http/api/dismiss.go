package api

import (
	"fmt"
	"net/http"
)

// DismissHandler handles dismissal requests.
type DismissHandler struct {
	deps Dependencies
}

// NewDismissHandler creates a new dismiss handler.
func NewDismissHandler(deps Dependencies) *DismissHandler {
	return &DismissHandler{deps: deps}
}

type dismissResponse struct {
	Dismissed bool `json:"dismissed"`
}

// HandlePostDismiss handles POST /dismiss requests.
func (h *DismissHandler) HandlePostDismiss(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	dismissed, err := h.deps.Dismiss(r.Context(), req.candidate())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dismissResponse{Dismissed: dismissed})
}
