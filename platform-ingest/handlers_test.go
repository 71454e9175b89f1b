package platformingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Abhinav-Kukreti/analytics-platform/platform-ingest/eventdao"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/tj/assert"
)

type fakeEventStore struct {
	mu     sync.Mutex
	events []eventdao.Event
	putErr error
}

func (s *fakeEventStore) Put(_ context.Context, event eventdao.Event) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *fakeEventStore) QueryByTenant(_ context.Context, tenantID string, q eventdao.Query) ([]eventdao.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []eventdao.Event
	for _, event := range s.events {
		if event.TenantID != tenantID {
			continue
		}
		if q.EventType != "" && event.EventType != q.EventType {
			continue
		}
		if q.Start != 0 && (event.Timestamp < q.Start || event.Timestamp > q.End) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

type fakeBridge struct {
	mu      sync.Mutex
	tenants []string
	records []interface{}
}

func (b *fakeBridge) EventStored(_ context.Context, tenantID string, record interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tenants = append(b.tenants, tenantID)
	b.records = append(b.records, record)
}

func newTestServer(store *fakeEventStore, bridge *fakeBridge) *httptest.Server {
	handlers := &Handlers{Events: store, Bridge: bridge, Logger: zerolog.Nop()}
	router := chi.NewRouter()
	handlers.Routes(router, testSecret)
	return httptest.NewServer(router)
}

func doRequest(t *testing.T, method, url, token, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	assert.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestIngest(t *testing.T) {
	t.Run("stores then broadcasts", func(t *testing.T) {
		store := &fakeEventStore{}
		bridge := &fakeBridge{}
		server := newTestServer(store, bridge)
		defer server.Close()

		resp, body := doRequest(t, http.MethodPost, server.URL+"/analytics/ingest", signToken(t, "acme", testSecret),
			`{"eventType":"page-view","eventData":{"path":"/home"},"userId":"u1"}`)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		assert.NotEmpty(t, body["eventId"])

		assert.Len(t, store.events, 1)
		event := store.events[0]
		assert.Equal(t, "acme", event.TenantID)
		assert.Equal(t, "page-view", event.EventType)
		assert.JSONEq(t, `{"path":"/home"}`, event.EventData)
		assert.Equal(t, "u1", event.UserID)
		assert.Equal(t, body["eventId"], event.ID)

		assert.Equal(t, []string{"acme"}, bridge.tenants)
		assert.Equal(t, event, bridge.records[0])
	})

	t.Run("rejects unauthenticated requests", func(t *testing.T) {
		store := &fakeEventStore{}
		server := newTestServer(store, &fakeBridge{})
		defer server.Close()

		resp, _ := doRequest(t, http.MethodPost, server.URL+"/analytics/ingest", "",
			`{"eventType":"page-view"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Len(t, store.events, 0)
	})

	t.Run("store failure means no broadcast", func(t *testing.T) {
		store := &fakeEventStore{putErr: errors.New("dynamo unavailable")}
		bridge := &fakeBridge{}
		server := newTestServer(store, bridge)
		defer server.Close()

		resp, _ := doRequest(t, http.MethodPost, server.URL+"/analytics/ingest", signToken(t, "acme", testSecret),
			`{"eventType":"page-view"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Len(t, bridge.tenants, 0)
	})

	t.Run("invalid body", func(t *testing.T) {
		server := newTestServer(&fakeEventStore{}, &fakeBridge{})
		defer server.Close()

		resp, _ := doRequest(t, http.MethodPost, server.URL+"/analytics/ingest", signToken(t, "acme", testSecret),
			`{{{`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestQuery(t *testing.T) {
	store := &fakeEventStore{events: []eventdao.Event{
		{TenantID: "acme", Timestamp: 100, ID: "e1", EventType: "page-view"},
		{TenantID: "acme", Timestamp: 200, ID: "e2", EventType: "click"},
		{TenantID: "globex", Timestamp: 300, ID: "e3", EventType: "page-view"},
	}}
	server := newTestServer(store, &fakeBridge{})
	defer server.Close()

	t.Run("scoped to the token's tenant", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, server.URL+"/analytics/", signToken(t, "acme", testSecret), "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 2, body["count"])
	})

	t.Run("event type filter", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, server.URL+"/analytics/?eventType=click", signToken(t, "acme", testSecret), "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 1, body["count"])
	})

	t.Run("time range", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodGet, server.URL+"/analytics/?startTime=150&endTime=250", signToken(t, "acme", testSecret), "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 1, body["count"])
	})
}
