package platformws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abhinav-Kukreti/analytics-platform/platform-ws/publish"
	"github.com/aws/aws-lambda-go/events"
	consumer "github.com/harlow/kinesis-consumer"
	"github.com/rs/zerolog"
)

// Dispatcher consumes tenant event envelopes from the WebSocket events
// stream and fans them out through the Broadcaster.
type Dispatcher struct {
	Broadcaster *Broadcaster
	Logger      zerolog.Logger
}

// HandleKinesisEvent processes a batch of Kinesis records. A bad record is
// logged and skipped rather than failing the whole batch.
func (d *Dispatcher) HandleKinesisEvent(ctx context.Context, event events.KinesisEvent) error {
	for _, record := range event.Records {
		if err := d.processRecord(ctx, record.Kinesis.Data); err != nil {
			d.Logger.Error().Err(err).
				Str("event_id", record.EventID).
				Msg("failed to process kinesis record")
		}
	}
	return nil
}

func (d *Dispatcher) processRecord(ctx context.Context, data []byte) error {
	var envelope publish.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("unmarshalling kinesis record: %w", err)
	}

	if envelope.TenantID == "" {
		d.Logger.Warn().Msg("kinesis record has empty tenant id, skipping")
		return nil
	}

	if _, err := d.Broadcaster.Broadcast(ctx, envelope.TenantID, envelope.Payload); err != nil {
		return fmt.Errorf("broadcasting to tenant %v: %w", envelope.TenantID, err)
	}
	return nil
}

// HandleRealtime consumes the live events stream, for running the dispatcher
// from a console instead of as a Lambda.
func (d *Dispatcher) HandleRealtime(ctx context.Context, streamName string) error {
	c, err := consumer.New(streamName, consumer.WithShardIteratorType("LATEST"))
	if err != nil {
		return fmt.Errorf("creating kinesis consumer for %v: %w", streamName, err)
	}

	d.Logger.Info().Str("stream", streamName).Msg("listening for events")
	return c.Scan(ctx, func(record *consumer.Record) error {
		if err := d.processRecord(ctx, record.Data); err != nil {
			d.Logger.Error().Err(err).Msg("failed to process record")
		}
		return nil
	})
}
