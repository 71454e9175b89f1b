package platformws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Abhinav-Kukreti/analytics-platform/platform-ws/connectiondao"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/rs/zerolog"
)

// fakeStore is an in-memory ConnectionStore.
type fakeStore struct {
	mu       sync.Mutex
	conns    map[string]connectiondao.Connection
	putErr   error
	joinErr  error
	queryErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{conns: map[string]connectiondao.Connection{}}
}

func (s *fakeStore) Put(_ context.Context, conn connectiondao.Connection) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn.ConnectionID] = conn
	return nil
}

func (s *fakeStore) Join(_ context.Context, connectionID, tenantID string, joinedAt time.Time) error {
	if s.joinErr != nil {
		return s.joinErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// UpdateItem semantics: creates the record if absent
	conn := s.conns[connectionID]
	conn.ConnectionID = connectionID
	conn.TenantID = tenantID
	conn.Status = connectiondao.StatusJoined
	conn.JoinedAt = joinedAt.UnixMilli()
	s.conns[connectionID] = conn
	return nil
}

func (s *fakeStore) Delete(_ context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, connectionID)
	return nil
}

func (s *fakeStore) QueryJoined(_ context.Context, tenantID string) ([]connectiondao.Connection, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var joined []connectiondao.Connection
	for _, conn := range s.conns {
		if conn.Joined() && conn.TenantID == tenantID {
			joined = append(joined, conn)
		}
	}
	return joined, nil
}

func (s *fakeStore) get(connectionID string) (connectiondao.Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.conns[connectionID]
	return conn, ok
}

// fakeSender records pushed payloads per connection id.
type fakeSender struct {
	mu   sync.Mutex
	sent map[string][][]byte
	errs map[string]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		sent: map[string][][]byte{},
		errs: map[string]error{},
	}
}

func (s *fakeSender) Post(_ context.Context, _, connectionID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[connectionID]; ok {
		return err
	}
	s.sent[connectionID] = append(s.sent[connectionID], data)
	return nil
}

func (s *fakeSender) received(connectionID string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[connectionID]
}

// blockingSender never completes; used to exercise the delivery timeout.
type blockingSender struct{}

func (blockingSender) Post(ctx context.Context, _, _ string, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func connectionFixture(connectionID, tenantID string) connectiondao.Connection {
	return connectiondao.Connection{
		ConnectionID: connectionID,
		Endpoint:     "https://api.example.com/dev",
		TenantID:     tenantID,
		Status:       connectiondao.StatusJoined,
		ConnectedAt:  time.Now().UnixMilli(),
		JoinedAt:     time.Now().UnixMilli(),
		TTL:          time.Now().Add(2 * time.Hour).Unix(),
	}
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func goneError() error {
	return awserr.NewRequestFailure(
		awserr.New(apigatewaymanagementapi.ErrCodeGoneException, "connection is gone", nil),
		http.StatusGone,
		"request-id",
	)
}

func transientError() error {
	return awserr.NewRequestFailure(
		awserr.New("InternalServerError", "upstream hiccup", nil),
		http.StatusInternalServerError,
		"request-id",
	)
}

func newTestHandler() (*Handler, *fakeStore, *fakeSender) {
	store := newFakeStore()
	sender := newFakeSender()
	channel := &Channel{Sender: sender, Store: store, Logger: zerolog.Nop()}
	handler := &Handler{Store: store, Channel: channel, Logger: zerolog.Nop()}
	return handler, store, sender
}

func newTestBroadcaster(store *fakeStore, sender *fakeSender) *Broadcaster {
	return &Broadcaster{
		Store:   store,
		Channel: &Channel{Sender: sender, Store: store, Logger: zerolog.Nop()},
		Logger:  zerolog.Nop(),
	}
}

func wsRequest(route, connectionID, body string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		Body: body,
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			ConnectionID: connectionID,
			RouteKey:     route,
			DomainName:   "api.example.com",
			Stage:        "dev",
		},
	}
}
