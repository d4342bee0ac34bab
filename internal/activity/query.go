package activity

import "time"

// QueryOptions controls filtering and pagination for activity queries.
type QueryOptions struct {
	Since      *time.Time
	Until      *time.Time
	EventTypes []string // filter to specific event types
	Limit      int      // max results (default: 50, max: 500)
	Cursor     string   // cursor for pagination
}

// DefaultQueryOptions returns QueryOptions with sensible defaults.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{Limit: 50}
}

func (o QueryOptions) limit() int {
	if o.Limit <= 0 || o.Limit > 500 {
		return 50
	}
	return o.Limit
}
