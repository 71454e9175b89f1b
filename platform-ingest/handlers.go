package platformingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Abhinav-Kukreti/analytics-platform/platform-ingest/eventdao"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventStore is the slice of eventdao.DAO the handlers need.
type EventStore interface {
	Put(ctx context.Context, event eventdao.Event) error
	QueryByTenant(ctx context.Context, tenantID string, q eventdao.Query) ([]eventdao.Event, error)
}

// EventBroadcaster is notified after an event has been durably stored.
// *platformws.Bridge is the production implementation.
type EventBroadcaster interface {
	EventStored(ctx context.Context, tenantID string, record interface{})
}

// Handlers serves the ingest and query endpoints.
type Handlers struct {
	Events EventStore
	Bridge EventBroadcaster
	Logger zerolog.Logger
}

// Routes mounts the analytics endpoints. The Auth middleware must wrap them.
func (h *Handlers) Routes(r chi.Router, secret []byte) {
	r.Route("/analytics", func(r chi.Router) {
		r.Use(Auth(secret))
		r.Post("/ingest", h.ingest)
		r.Get("/", h.query)
	})
}

type ingestRequest struct {
	EventType string          `json:"eventType"`
	EventData json.RawMessage `json:"eventData"`
	UserID    string          `json:"userId"`
}

func (h *Handlers) ingest(w http.ResponseWriter, req *http.Request) {
	tenantID := TenantFromContext(req.Context())

	var body ingestRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body"})
		return
	}

	now := time.Now()
	record := eventdao.Event{
		TenantID:  tenantID,
		Timestamp: now.UnixMilli(),
		ID:        fmt.Sprintf("%v-%v-%v", tenantID, now.UnixMilli(), uuid.NewString()[:8]),
		EventType: body.EventType,
		EventData: string(body.EventData),
		UserID:    body.UserID,
	}

	if err := h.Events.Put(req.Context(), record); err != nil {
		h.Logger.Error().Err(err).Str("tenant_id", tenantID).Msg("failed to store event")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "failed to record event"})
		return
	}

	// Broadcast only after the write has succeeded; a broadcast failure must
	// not fail the ingestion, the stored record is the source of truth.
	h.Bridge.EventStored(req.Context(), tenantID, record)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Event recorded and broadcasted successfully",
		"eventId": record.ID,
	})
}

func (h *Handlers) query(w http.ResponseWriter, req *http.Request) {
	tenantID := TenantFromContext(req.Context())

	q := eventdao.Query{
		EventType: req.URL.Query().Get("eventType"),
	}
	start, _ := strconv.ParseInt(req.URL.Query().Get("startTime"), 10, 64)
	end, _ := strconv.ParseInt(req.URL.Query().Get("endTime"), 10, 64)
	if start != 0 && end != 0 {
		q.Start, q.End = start, end
	}

	events, err := h.Events.QueryByTenant(req.Context(), tenantID, q)
	if err != nil {
		h.Logger.Error().Err(err).Str("tenant_id", tenantID).Msg("failed to query events")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "failed to query events"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    events,
		"count":   len(events),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
