// Package messaging publishes domain events.
package messaging

import (
	"context"

	"topicgraph/application/ports"
	"topicgraph/domain/events"

	"go.uber.org/zap"
)

// LoggingBus writes every event to the log. It is used when no external
// bus is configured.
type LoggingBus struct {
	logger *zap.Logger
}

var _ ports.EventBus = (*LoggingBus)(nil)

func NewLoggingBus(logger *zap.Logger) *LoggingBus {
	return &LoggingBus{logger: logger.Named("events")}
}

func (b *LoggingBus) Publish(_ context.Context, event events.DomainEvent) error {
	b.logger.Info("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Int64("version", event.GetVersion()),
		zap.Time("timestamp", event.GetTimestamp()),
	)
	return nil
}

func (b *LoggingBus) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, e := range evts {
		_ = b.Publish(ctx, e)
	}
	return nil
}
