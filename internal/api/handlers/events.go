package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/courtyard-app/server/internal/api/middleware"
	"github.com/courtyard-app/server/internal/api/problem"
	"github.com/courtyard-app/server/internal/domain/events"
	"github.com/courtyard-app/server/internal/metrics"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type eventListResponse struct {
	Items      []events.Event `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type calendarResponse struct {
	Items []calendarItem `json:"items"`
}

type calendarItem struct {
	events.Occurrence
	Describe string `json:"recurrence_text,omitempty"`
}

// List serves both views of the events collection: the stored rows, and
// with expand=true the generated calendar occurrences.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	filters, pagination, err := events.ParseFilters(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	if filters.Expand {
		occurrences, err := h.Service.Calendar(r.Context(), caller.BuildingID, filters)
		if err != nil {
			problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
			return
		}

		items := make([]calendarItem, 0, len(occurrences))
		for _, occurrence := range occurrences {
			metrics.OccurrencesExpanded.WithLabelValues(occurrenceFrequency(occurrence)).Inc()
			items = append(items, calendarItem{
				Occurrence: occurrence,
				Describe:   occurrence.Recurrence.Describe(),
			})
		}
		writeJSON(w, http.StatusOK, calendarResponse{Items: items})
		return
	}

	result, err := h.Service.List(r.Context(), caller.BuildingID, pagination)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
		return
	}
	if result.Events == nil {
		result.Events = []events.Event{}
	}
	writeJSON(w, http.StatusOK, eventListResponse{Items: result.Events, NextCursor: result.NextCursor})
}

func occurrenceFrequency(occurrence events.Occurrence) string {
	if !occurrence.Generated || occurrence.Recurrence == nil {
		return "none"
	}
	return string(occurrence.Recurrence.Freq)
}

type eventRequest struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Location      string     `json:"location"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Repeat        string     `json:"repeat"`
	RecurrenceEnd *time.Time `json:"recurrence_end"`
}

func (req eventRequest) input() events.CreateInput {
	return events.CreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Repeat:        req.Repeat,
		RecurrenceEnd: req.RecurrenceEnd,
	}
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), caller.BuildingID, caller.UserID, req.input())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid event", err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	event, err := h.Service.Get(r.Context(), caller.BuildingID, pathParam(r, "id"))
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Service.Update(r.Context(), caller.BuildingID, caller.UserID, caller.Role, pathParam(r, "id"), req.input())
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.Service.Delete(r.Context(), caller.BuildingID, caller.UserID, caller.Role, pathParam(r, "id")); err != nil {
		h.writeEventError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rsvpRequest struct {
	Going bool `json:"going"`
}

func (h *EventsHandler) RSVP(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req rsvpRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Service.RSVP(r.Context(), caller.BuildingID, caller.UserID, pathParam(r, "id"), req.Going)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventsHandler) writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, typeNotFound, "Event not found", err, h.Env)
	case errors.Is(err, events.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, typeForbidden, "Forbidden", err, h.Env)
	case errors.Is(err, events.ErrInvalid):
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid event", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
	}
}
