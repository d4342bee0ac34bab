package eventbus

import (
	"context"

	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/event"
	"github.com/Lagunov2003/practice-registry/internal/logging"
)

// LogConsumer logs all domain events for observability.
type LogConsumer struct {
	log *zap.Logger
}

func NewLogConsumer(log *zap.Logger) *LogConsumer {
	return &LogConsumer{log: logging.OrNop(log)}
}

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	entities := make([]string, len(evt.AffectedEntities))
	for i, ref := range evt.AffectedEntities {
		entities[i] = ref.EntityType + ":" + ref.EntityID
	}
	c.log.Info("event",
		zap.String("type", evt.EventType),
		zap.String("summary", evt.Summary),
		zap.Strings("entities", entities),
		zap.String("origin", evt.Origin))
	return nil
}
