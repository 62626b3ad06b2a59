package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/suggest/internal/app"
	"github.com/okian/suggest/internal/domain/model"
	"github.com/okian/suggest/internal/domain/types"
)

// RankHandler handles rank requests.
type RankHandler struct {
	deps Dependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps Dependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

type candidateRequest struct {
	Identifier string            `json:"identifier"`
	Metadata   map[string]string `json:"metadata"`
}

func (c candidateRequest) candidate() model.Candidate {
	return model.Candidate{Identifier: c.Identifier, Metadata: c.Metadata}
}

// rankRequest is the body of POST /rank.
type rankRequest struct {
	Candidates  []candidateRequest `json:"candidates"`
	Identifiers []string           `json:"identifiers"`
	Limit       int                `json:"limit"`
	Exclusive   bool               `json:"exclusive"`
}

func (r rankRequest) validate() error {
	switch {
	case r.Limit < 0:
		return errors.New("limit must not be negative")
	case len(r.Identifiers) > 0 && len(r.Identifiers) != len(r.Candidates):
		return errors.New("identifiers must be parallel to candidates")
	}
	return nil
}

type rankResponse struct {
	Entries []types.RankedEntry `json:"entries"`
}

// HandlePostRank handles POST /rank requests.
func (h *RankHandler) HandlePostRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	candidates := make([]model.Candidate, len(req.Candidates))
	for i, c := range req.Candidates {
		candidates[i] = c.candidate()
	}
	entries, err := h.deps.Rank(r.Context(), service.RankRequest{
		Candidates:  candidates,
		Identifiers: req.Identifiers,
		Limit:       req.Limit,
		Exclusive:   req.Exclusive,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []types.RankedEntry{}
	}
	writeJSON(w, http.StatusOK, rankResponse{Entries: entries})
}
