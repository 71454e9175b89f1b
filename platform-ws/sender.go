package platformws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Abhinav-Kukreti/analytics-platform/platform-ws/connectiondao"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"
	"github.com/rs/zerolog"
)

// DefaultDeliverTimeout bounds a single push attempt. A timeout counts as a
// transient failure, not a gone connection.
const DefaultDeliverTimeout = 10 * time.Second

// Sender pushes a payload to a single connection through the transport.
type Sender interface {
	Post(ctx context.Context, endpoint, connectionID string, data []byte) error
}

// ManagementSender sends through the API Gateway Management API, caching one
// client per endpoint.
type ManagementSender struct {
	mu      sync.RWMutex
	clients map[string]apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
}

func NewManagementSender() *ManagementSender {
	return &ManagementSender{
		clients: make(map[string]apigatewaymanagementapiiface.ApiGatewayManagementApiAPI),
	}
}

func (s *ManagementSender) Post(ctx context.Context, endpoint, connectionID string, data []byte) error {
	client := s.client(endpoint)
	_, err := client.PostToConnectionWithContext(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         data,
	})
	return err
}

func (s *ManagementSender) client(endpoint string) apigatewaymanagementapiiface.ApiGatewayManagementApiAPI {
	s.mu.RLock()
	if client, ok := s.clients[endpoint]; ok {
		s.mu.RUnlock()
		return client
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if client, ok := s.clients[endpoint]; ok {
		return client
	}

	sess := session.Must(session.NewSession(aws.NewConfig().WithEndpoint(endpoint)))
	client := apigatewaymanagementapi.New(sess)
	s.clients[endpoint] = client
	return client
}

// IsGone reports whether a send failure means the remote endpoint is no
// longer reachable. API Gateway signals this as 410 Gone, or 403 Forbidden
// once the connection id has been recycled.
func IsGone(err error) bool {
	if err == nil {
		return false
	}
	var rf awserr.RequestFailure
	if errors.As(err, &rf) {
		return rf.StatusCode() == http.StatusGone || rf.StatusCode() == http.StatusForbidden
	}
	return strings.Contains(err.Error(), apigatewaymanagementapi.ErrCodeGoneException) ||
		strings.Contains(err.Error(), apigatewaymanagementapi.ErrCodeForbiddenException)
}

// Channel delivers payloads to single connections and classifies failures.
// A gone connection is evicted from the store as a side effect; transient
// failures leave the registry untouched.
type Channel struct {
	Sender  Sender
	Store   ConnectionStore
	Logger  zerolog.Logger
	Timeout time.Duration // per-attempt bound (default DefaultDeliverTimeout)
}

// Deliver pushes data to one connection. Returns true on success. Failures
// are logged, never returned: the caller only cares whether the payload
// landed.
func (c *Channel) Deliver(ctx context.Context, conn connectiondao.Connection, data []byte) bool {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultDeliverTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := c.Sender.Post(ctx, conn.Endpoint, conn.ConnectionID, data)
	if err == nil {
		return true
	}

	if IsGone(err) {
		c.Logger.Info().
			Str("connection_id", conn.ConnectionID).
			Msg("connection gone, cleaning up")
		if delErr := c.Store.Delete(ctx, conn.ConnectionID); delErr != nil {
			c.Logger.Error().Err(delErr).
				Str("connection_id", conn.ConnectionID).
				Msg("failed to delete gone connection")
		}
		return false
	}

	c.Logger.Warn().Err(err).
		Str("connection_id", conn.ConnectionID).
		Msg("transient delivery failure")
	return false
}
