// Package lookup resolves suggestion queries against the backend, with
// request collapsing and an optional result cache in front of it.
package lookup

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/observability"
	"github.com/Lagunov2003/practice-registry/internal/practiceapi"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

// ErrEmptyQuery is returned for an empty query; nothing is sent.
var ErrEmptyQuery = practiceapi.ErrEmptyQuery

// Backend performs an uncached lookup. *practiceapi.Client satisfies it.
type Backend interface {
	Lookup(ctx context.Context, domain types.Domain, query string) ([]types.Suggestion, error)
}

// Func adapts a function to Backend.
type Func func(ctx context.Context, domain types.Domain, query string) ([]types.Suggestion, error)

func (f Func) Lookup(ctx context.Context, domain types.Domain, query string) ([]types.Suggestion, error) {
	return f(ctx, domain, query)
}

// Service is safe for concurrent use by every session.
type Service struct {
	backend Backend
	cache   Cache
	group   singleflight.Group
	log     *zap.Logger
	metrics *observability.Metrics
}

// NewService wires a backend with an optional cache (nil disables caching).
func NewService(backend Backend, cache Cache, log *zap.Logger, metrics *observability.Metrics) *Service {
	return &Service{backend: backend, cache: cache, log: logging.OrNop(log), metrics: metrics}
}

// Search returns suggestions for query in domain.
func (s *Service) Search(ctx context.Context, domain types.Domain, query string) ([]types.Suggestion, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	key := Key(domain, query)
	if s.cache != nil {
		items, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn("lookup cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			s.metrics.ObserveLookup(string(domain), "hit")
			return items, nil
		}
	}

	// The shared call outlives any single caller; each caller stops waiting
	// on its own context.
	ch := s.group.DoChan(key, func() (any, error) {
		callCtx := context.WithoutCancel(ctx)
		items, err := s.backend.Lookup(callCtx, domain, query)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if cerr := s.cache.Set(callCtx, key, items); cerr != nil {
				s.log.Warn("lookup cache write failed", zap.String("key", key), zap.Error(cerr))
			}
		}
		return items, nil
	})
	var v any
	var err error
	select {
	case res := <-ch:
		v, err = res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err != nil {
		s.metrics.ObserveLookup(string(domain), "error")
		return nil, err
	}
	s.metrics.ObserveLookup(string(domain), "miss")
	return v.([]types.Suggestion), nil
}
