// Package activity keeps the feed of registry mutations made through the
// admin server, queryable per entity and newest first.
package activity

import (
	"context"

	"github.com/Lagunov2003/practice-registry/internal/types"
)

// Store is the interface for reading and writing activity entries.
type Store interface {
	// WriteEntries writes one or more activity entries (one event → many entries).
	WriteEntries(ctx context.Context, entries []types.ActivityEntry) error

	// QueryByEntity returns activity entries for a specific entity.
	QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) (entries []types.ActivityEntry, nextCursor string, totalCount int, err error)

	// Recent returns the subject entry of the latest events.
	Recent(ctx context.Context, opts QueryOptions) ([]types.ActivityEntry, error)
}
