package platformws

import (
	"context"
	"fmt"
	"time"

	"github.com/Abhinav-Kukreti/analytics-platform/platform-ws/connectiondao"
	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
)

// Handler handles API Gateway WebSocket lifecycle events for the analytics
// push channel.
type Handler struct {
	Store   ConnectionStore
	Channel *Channel
	Logger  zerolog.Logger
	ConnTTL time.Duration // TTL for connection records (default 2 hours)
}

// HandleEvent routes an API Gateway WebSocket event to the appropriate handler.
func (h *Handler) HandleEvent(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := h.Logger.With().
		Str("connection_id", req.RequestContext.ConnectionID).
		Str("route", req.RequestContext.RouteKey).
		Logger()

	switch req.RequestContext.RouteKey {
	case "$connect":
		return h.handleConnect(ctx, logger, req)
	case "$disconnect":
		return h.handleDisconnect(ctx, logger, req)
	case "$default":
		return h.handleMessage(ctx, logger, req)
	default:
		logger.Warn().Str("route", req.RequestContext.RouteKey).Msg("unknown route")
		return events.APIGatewayProxyResponse{StatusCode: 400}, nil
	}
}

func (h *Handler) handleConnect(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	ttl := h.ConnTTL
	if ttl == 0 {
		ttl = 2 * time.Hour
	}

	now := time.Now()
	conn := connectiondao.Connection{
		ConnectionID: req.RequestContext.ConnectionID,
		Endpoint:     managementEndpoint(req),
		Status:       connectiondao.StatusConnected,
		ConnectedAt:  now.UnixMilli(),
		TTL:          now.Add(ttl).Unix(),
	}

	// Store failure leaves the connection invisible to broadcasts, but the
	// transport connect is still acknowledged; failing here would tear down
	// an otherwise healthy socket.
	if err := h.Store.Put(ctx, conn); err != nil {
		logger.Error().Err(err).Msg("failed to store connection")
		return events.APIGatewayProxyResponse{StatusCode: 200, Body: "Connected"}, nil
	}

	logger.Info().Msg("connection established")
	return events.APIGatewayProxyResponse{StatusCode: 200, Body: "Connected"}, nil
}

func (h *Handler) handleDisconnect(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := h.Store.Delete(ctx, req.RequestContext.ConnectionID); err != nil {
		logger.Error().Err(err).Msg("failed to delete connection")
	}

	logger.Info().Msg("connection closed")
	return events.APIGatewayProxyResponse{StatusCode: 200, Body: "Disconnected"}, nil
}

func (h *Handler) handleMessage(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	msg := ParseMessage(req.Body)

	conn := connectiondao.Connection{
		ConnectionID: req.RequestContext.ConnectionID,
		Endpoint:     managementEndpoint(req),
	}

	switch {
	case msg.Action == ActionHeartbeat:
		// No persisted mutation; in particular the record's ttl is not
		// refreshed, so an idle-but-alive connection can still age out.
		if !h.Channel.Deliver(ctx, conn, HeartbeatResponse(time.Now())) {
			logger.Warn().Msg("failed to send heartbeat response")
		}
		return events.APIGatewayProxyResponse{StatusCode: 200, Body: "Heartbeat received"}, nil

	case msg.Action == ActionJoinTenant && msg.TenantID != "":
		return h.handleJoin(ctx, logger, conn, msg.TenantID)

	default:
		if !h.Channel.Deliver(ctx, conn, EchoMessage(msg.Original, time.Now())) {
			logger.Warn().Msg("failed to send echo")
		}
		return events.APIGatewayProxyResponse{StatusCode: 200, Body: "Message processed"}, nil
	}
}

func (h *Handler) handleJoin(ctx context.Context, logger zerolog.Logger, conn connectiondao.Connection, tenantID string) (events.APIGatewayProxyResponse, error) {
	if err := h.Store.Join(ctx, conn.ConnectionID, tenantID, time.Now()); err != nil {
		logger.Error().Err(err).Str("tenant_id", tenantID).Msg("failed to join tenant")
		return events.APIGatewayProxyResponse{StatusCode: 500, Body: "Failed to process message"}, nil
	}

	if !h.Channel.Deliver(ctx, conn, JoinedMessage(tenantID)) {
		logger.Warn().Str("tenant_id", tenantID).Msg("failed to send joined ack")
	}

	logger.Info().Str("tenant_id", tenantID).Msg("joined tenant")
	return events.APIGatewayProxyResponse{StatusCode: 200, Body: "Joined tenant"}, nil
}

func managementEndpoint(req events.APIGatewayWebsocketProxyRequest) string {
	return fmt.Sprintf("https://%s/%s", req.RequestContext.DomainName, req.RequestContext.Stage)
}
