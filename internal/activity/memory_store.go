package activity

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Lagunov2003/practice-registry/internal/types"
)

// RoleSubject marks the entry indexed under the event's main entity.
const RoleSubject = "subject"

// MemoryStore implements Store using in-memory slices. The feed is lost on
// restart, which is acceptable for an admin session log.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []types.ActivityEntry
	max     int
}

// NewMemoryStore keeps at most max entries, dropping the oldest first.
// max <= 0 means unbounded.
func NewMemoryStore(max int) *MemoryStore {
	return &MemoryStore{max: max}
}

func (s *MemoryStore) WriteEntries(_ context.Context, entries []types.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	if s.max > 0 && len(s.entries) > s.max {
		s.entries = slices.Clone(s.entries[len(s.entries)-s.max:])
	}
	return nil
}

func (s *MemoryStore) QueryByEntity(_ context.Context, entityType, entityID string, opts QueryOptions) ([]types.ActivityEntry, string, int, error) {
	s.mu.RLock()
	matched := s.filter(opts, func(e types.ActivityEntry) bool {
		return e.IndexedEntityType == entityType && e.IndexedEntityID == entityID
	})
	s.mu.RUnlock()

	totalCount := len(matched)
	limit := opts.limit()
	var nextCursor string
	if len(matched) > limit {
		matched = matched[:limit]
		nextCursor = matched[len(matched)-1].OccurredAt.Format(time.RFC3339Nano)
	}
	return matched, nextCursor, totalCount, nil
}

func (s *MemoryStore) Recent(_ context.Context, opts QueryOptions) ([]types.ActivityEntry, error) {
	s.mu.RLock()
	matched := s.filter(opts, func(e types.ActivityEntry) bool {
		return e.EntityRole == RoleSubject
	})
	s.mu.RUnlock()

	if limit := opts.limit(); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// filter must be called with s.mu held. Results are sorted newest first.
func (s *MemoryStore) filter(opts QueryOptions, keep func(types.ActivityEntry) bool) []types.ActivityEntry {
	var cursor time.Time
	if opts.Cursor != "" {
		if t, err := time.Parse(time.RFC3339Nano, opts.Cursor); err == nil {
			cursor = t
		}
	}
	var matched []types.ActivityEntry
	// Walk backwards so entries sharing a timestamp stay newest first.
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if !keep(e) {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.OccurredAt.After(*opts.Until) {
			continue
		}
		if len(opts.EventTypes) > 0 && !slices.Contains(opts.EventTypes, e.EventType) {
			continue
		}
		if !cursor.IsZero() && !e.OccurredAt.Before(cursor) {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})
	return matched
}
