package platformws

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Bridge is the ingestion-side entry point into the broadcast engine. The
// ingestion handler calls EventStored strictly after the event record has
// been durably written; the broadcast is best-effort relative to that write.
type Bridge struct {
	Broadcaster *Broadcaster
	Logger      zerolog.Logger
}

// EventStored broadcasts a new-event envelope for a freshly stored record.
// Failures are logged and swallowed: a failed broadcast must never fail or
// roll back the ingestion that triggered it.
func (b *Bridge) EventStored(ctx context.Context, tenantID string, record interface{}) {
	envelope := NewEventEnvelope(record, time.Now())

	delivered, err := b.Broadcaster.Broadcast(ctx, tenantID, envelope)
	if err != nil {
		b.Logger.Error().Err(err).Str("tenant_id", tenantID).Msg("broadcast failed")
		return
	}

	b.Logger.Debug().
		Str("tenant_id", tenantID).
		Int("delivered", delivered).
		Msg("event broadcast")
}
