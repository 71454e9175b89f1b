// Package platformws implements the WebSocket connection registry and the
// tenant broadcast fan-out engine. Connections live in DynamoDB (see
// connectiondao); pushes go out through the API Gateway Management API.
//
// Every component takes its collaborators as explicit dependencies so the
// whole layer can run against in-memory fakes in tests.
package platformws

import (
	"context"
	"time"

	"github.com/Abhinav-Kukreti/analytics-platform/platform-ws/connectiondao"
)

// ConnectionStore is the persistent registry of live connections.
// *connectiondao.DAO is the production implementation.
type ConnectionStore interface {
	// Put upserts a connection record.
	Put(ctx context.Context, conn connectiondao.Connection) error

	// Join marks a connection as joined to a tenant. Idempotent; re-joining
	// overwrites the tenant id.
	Join(ctx context.Context, connectionID, tenantID string, joinedAt time.Time) error

	// Delete removes a connection record. Deleting an absent record is a
	// no-op, not an error.
	Delete(ctx context.Context, connectionID string) error

	// QueryJoined returns all joined connections for a tenant.
	QueryJoined(ctx context.Context, tenantID string) ([]connectiondao.Connection, error)
}
