// Package event builds the domain events of registry mutations and records
// them into the activity feed before handing them to the event bus.
package event

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/activity"
	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

// ErrNoAffectedEntities is returned for an event that references nothing;
// it could never be found in the feed.
var ErrNoAffectedEntities = errors.New("event has no affected entities")

// Recorder writes domain events to the activity feed.
type Recorder interface {
	Record(ctx context.Context, evt DomainEvent) error
}

// Publisher sends domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// ActivityRecorder indexes each practice event under every entity it
// touches, so the feed can be read per practice, per student or per
// organization. Publishing happens only after the feed write succeeds.
type ActivityRecorder struct {
	store activity.Store
	bus   Publisher
	log   *zap.Logger
}

// RecorderOption configures an ActivityRecorder.
type RecorderOption func(*ActivityRecorder)

// WithPublisher attaches the event bus.
func WithPublisher(p Publisher) RecorderOption {
	return func(r *ActivityRecorder) { r.bus = p }
}

// WithRecorderLogger sets the logger.
func WithRecorderLogger(log *zap.Logger) RecorderOption {
	return func(r *ActivityRecorder) { r.log = log }
}

func NewActivityRecorder(store activity.Store, opts ...RecorderOption) *ActivityRecorder {
	r := &ActivityRecorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrNop(r.log)
	return r
}

func (r *ActivityRecorder) Record(ctx context.Context, evt DomainEvent) error {
	if len(evt.AffectedEntities) == 0 {
		return ErrNoAffectedEntities
	}
	if err := r.store.WriteEntries(ctx, Entries(evt)); err != nil {
		r.log.Error("activity write failed", zap.String("type", evt.EventType), zap.String("id", evt.ID), zap.Error(err))
		return err
	}
	r.log.Debug("recorded", zap.String("type", evt.EventType), zap.String("origin", evt.Origin), zap.Int("entities", len(evt.AffectedEntities)))
	if r.bus != nil {
		r.bus.Publish(ctx, evt)
	}
	return nil
}

// Entries fans evt out into one feed entry per affected entity. The origin
// session travels with every entry.
func Entries(evt DomainEvent) []types.ActivityEntry {
	out := make([]types.ActivityEntry, len(evt.AffectedEntities))
	for i, ref := range evt.AffectedEntities {
		out[i] = types.ActivityEntry{
			EventID:           evt.ID,
			EventType:         evt.EventType,
			OccurredAt:        evt.OccurredAt,
			IndexedEntityType: ref.EntityType,
			IndexedEntityID:   ref.EntityID,
			EntityRole:        ref.Role,
			SourceRefs:        evt.AffectedEntities,
			Summary:           evt.Summary,
			Origin:            evt.Origin,
			Payload:           evt.Payload,
		}
	}
	return out
}
