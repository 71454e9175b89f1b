package platformws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	platformcli "github.com/Abhinav-Kukreti/analytics-platform/platform-cli"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Broadcaster fans a payload out to every joined connection of a tenant.
type Broadcaster struct {
	Store       ConnectionStore
	Channel     *Channel
	Logger      zerolog.Logger
	Concurrency int                  // max concurrent deliveries (default 50)
	Metrics     *platformcli.Metrics // optional
}

// Broadcast delivers payload to all joined connections of tenantID,
// concurrently and independently, and returns the number of successful
// deliveries. Per-connection failures never fail the broadcast; the only
// error case is the initial registry query. A tenant with no joined
// connections is a normal zero-delivery success.
func (b *Broadcaster) Broadcast(ctx context.Context, tenantID string, payload interface{}) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshalling broadcast payload: %w", err)
	}

	conns, err := b.Store.QueryJoined(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("querying connections for tenant %v: %w", tenantID, err)
	}
	if len(conns) == 0 {
		b.Logger.Debug().Str("tenant_id", tenantID).Msg("no joined connections")
		return 0, nil
	}

	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = 50
	}

	start := time.Now()
	var delivered int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, conn_ := range conns {
		conn := conn_
		g.Go(func() error {
			if b.Channel.Deliver(gctx, conn, data) {
				atomic.AddInt64(&delivered, 1)
			}
			return nil
		})
	}
	_ = g.Wait() // deliveries never return errors, wait is purely a barrier

	count := int(atomic.LoadInt64(&delivered))
	b.Logger.Info().
		Str("tenant_id", tenantID).
		Int("delivered", count).
		Int("attempted", len(conns)).
		Msg("broadcast complete")

	if b.Metrics != nil {
		dims := map[platformcli.DimensionName]string{platformcli.TenantDimension: tenantID}
		b.Metrics.Gauge(ctx, platformcli.BroadcastDeliveredMetric, float64(count), dims)
		if failed := len(conns) - count; failed > 0 {
			b.Metrics.Gauge(ctx, platformcli.BroadcastFailedMetric, float64(failed), dims)
		}
		b.Metrics.Timing(ctx, platformcli.ResponseTimeMetric, start, dims)
	}

	return count, nil
}
