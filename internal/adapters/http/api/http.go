// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/suggest/internal/adapters/eventstore"
	service "github.com/okian/suggest/internal/app"
	"github.com/okian/suggest/internal/domain/lifecycle"
	"github.com/okian/suggest/internal/domain/model"
	"github.com/okian/suggest/internal/domain/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	StatsProvider

	SubmitEvent(ctx context.Context, e model.Event) (types.SubmitStatus, error)
	Rank(ctx context.Context, req service.RankRequest) ([]types.RankedEntry, error)
	Dismiss(ctx context.Context, c model.Candidate) (bool, error)
	Features(ctx context.Context, identifier string) (types.FeatureEntry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	eventsHandler   *EventsHandler
	rankHandler     *RankHandler
	dismissHandler  *DismissHandler
	featuresHandler *FeaturesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		eventsHandler:   NewEventsHandler(deps),
		rankHandler:     NewRankHandler(deps),
		dismissHandler:  NewDismissHandler(deps),
		featuresHandler: NewFeaturesHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Post("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	r.Post("/rank", MetricsMiddleware(s.rankHandler.HandlePostRank, "rank"))
	r.Post("/dismiss", MetricsMiddleware(s.dismissHandler.HandlePostDismiss, "dismiss"))
	r.Get("/features/{id}", MetricsMiddleware(s.featuresHandler.HandleGetFeatures, "features"))
}

// Handler returns a router with every route registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
	})
	s.Register(r)
	return r
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
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

// writeServiceError translates service errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, eventstore.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, lifecycle.ErrDisableFailed):
		writeError(w, http.StatusInternalServerError, "disable_failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
