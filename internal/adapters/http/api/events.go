package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/suggest/internal/domain/model"
	"github.com/okian/suggest/internal/domain/types"
)

// EventsHandler handles event requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// eventRequest is the body of POST /events.
type eventRequest struct {
	EventID      string `json:"event_id"`
	SuggestionID string `json:"suggestion_id"`
	Type         string `json:"type"`
	TS           string `json:"ts"`
}

func (e eventRequest) toEvent() (model.Event, error) {
	typ, ok := model.ParseEventType(e.Type)
	if !ok {
		return model.Event{}, fmt.Errorf("invalid type %q; must be shown, clicked or dismissed", e.Type)
	}
	ev := model.Event{ID: strings.TrimSpace(e.EventID), SuggestionID: e.SuggestionID, Type: typ}
	if strings.TrimSpace(e.TS) != "" {
		ts, err := time.Parse(time.RFC3339Nano, e.TS)
		if err != nil {
			return model.Event{}, errors.New("invalid ts; must be RFC3339")
		}
		ev.TS = ts.UTC()
	}
	return ev, nil
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	status, err := h.deps.SubmitEvent(r.Context(), ev)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if status == types.SubmitDuplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: string(status), Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: string(status)})
}
