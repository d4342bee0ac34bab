package eventbus

import (
	"context"

	"github.com/Lagunov2003/practice-registry/internal/event"
)

// Refresher reloads every open workspace except the one named by origin.
type Refresher interface {
	RefreshExcept(ctx context.Context, origin string)
}

// RefreshConsumer keeps other sessions' lists current after a mutation.
type RefreshConsumer struct {
	target Refresher
}

func NewRefreshConsumer(target Refresher) *RefreshConsumer {
	return &RefreshConsumer{target: target}
}

func (c *RefreshConsumer) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	c.target.RefreshExcept(ctx, evt.Origin)
	return nil
}
