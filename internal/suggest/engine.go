// Package suggest turns keystrokes into debounced lookups. Each registered
// field keeps its own timer and result list; responses that no longer
// answer the field's current text are dropped.
package suggest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/observability"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

// DefaultDelay is the quiet period before a lookup fires.
const DefaultDelay = 300 * time.Millisecond

// LookupFunc resolves a non-empty query.
type LookupFunc func(ctx context.Context, query string) ([]types.Suggestion, error)

// State is a snapshot of one field.
type State struct {
	Query string             `json:"query"`
	Items []types.Suggestion `json:"items"`
	// Searched is true once a lookup for Query has answered.
	Searched bool `json:"searched"`
	// Pending is true while a timer or lookup for Query is outstanding.
	Pending bool `json:"pending"`
}

// ChangeFunc receives accepted lookup results. It is called from lookup
// goroutines without any engine lock held.
type ChangeFunc func(field string, st State)

type field struct {
	lookup LookupFunc
	state  State
	gen    uint64
	timer  *time.Timer
	ctx    context.Context
	cancel context.CancelFunc
}

// Engine is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	delay    time.Duration
	fields   map[string]*field
	closed   bool
	onChange ChangeFunc
	log      *zap.Logger
	metrics  *observability.Metrics
	wg       sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.delay = d
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = logging.OrNop(log) }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithOnChange registers the result callback.
func WithOnChange(fn ChangeFunc) Option {
	return func(e *Engine) { e.onChange = fn }
}

// New returns an engine with no fields.
func New(opts ...Option) *Engine {
	e := &Engine{
		delay:  DefaultDelay,
		fields: make(map[string]*field),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds a field. Registering an existing name replaces its lookup.
func (e *Engine) Register(name string, lookup LookupFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if f, ok := e.fields[name]; ok {
		f.lookup = lookup
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.fields[name] = &field{lookup: lookup, ctx: ctx, cancel: cancel}
}

// Has reports whether name is registered.
func (e *Engine) Has(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.fields[name]
	return ok
}

// OnInput records text for field and schedules a lookup. Empty text clears
// the list at once and schedules nothing. Unknown fields are ignored.
func (e *Engine) OnInput(name, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.fields[name]
	if !ok || e.closed {
		return
	}
	f.stopTimer()
	f.gen++
	f.state.Query = text
	f.state.Searched = false
	if text == "" {
		f.state.Items = nil
		f.state.Pending = false
		return
	}
	f.state.Pending = true
	gen := f.gen
	f.timer = time.AfterFunc(e.delay, func() { e.fire(name, gen) })
}

// Select clears the field's list and cancels its timer and in-flight
// lookups, as happens when the user picks a suggestion.
func (e *Engine) Select(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.fields[name]
	if !ok {
		return
	}
	f.reset()
	if !e.closed {
		f.ctx, f.cancel = context.WithCancel(context.Background())
	}
}

// Close cancels every timer, clears every list and ignores later responses.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, f := range e.fields {
		f.reset()
	}
	e.mu.Unlock()
}

// Wait blocks until every started lookup goroutine has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// State returns a copy of the field state.
func (e *Engine) State(name string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.fields[name]
	if !ok {
		return State{}
	}
	return f.state.copy()
}

// Items returns the current list of field.
func (e *Engine) Items(name string) []types.Suggestion {
	return e.State(name).Items
}

func (e *Engine) fire(name string, gen uint64) {
	e.mu.Lock()
	f, ok := e.fields[name]
	if !ok || e.closed || f.gen != gen {
		e.mu.Unlock()
		return
	}
	query := f.state.Query
	lookup := f.lookup
	ctx := f.ctx
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		items, err := lookup(ctx, query)
		e.deliver(name, query, items, err)
	}()
}

func (e *Engine) deliver(name, query string, items []types.Suggestion, err error) {
	e.mu.Lock()
	f, ok := e.fields[name]
	switch {
	case !ok || e.closed:
		e.mu.Unlock()
		e.metrics.SuggestionDropped("closed")
		return
	case f.state.Query != query || !f.state.Pending:
		e.mu.Unlock()
		e.metrics.SuggestionDropped("stale")
		return
	}
	f.state.Pending = false
	if err != nil {
		e.log.Warn("LookupFailed", zap.String("field", name), zap.String("query", query), zap.Error(err))
	} else {
		if items == nil {
			items = []types.Suggestion{}
		}
		f.state.Items = items
		f.state.Searched = true
	}
	st := f.state.copy()
	cb := e.onChange
	e.mu.Unlock()

	if cb != nil {
		cb(name, st)
	}
}

func (f *field) stopTimer() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// reset must be called with the engine lock held.
func (f *field) reset() {
	f.stopTimer()
	f.gen++
	f.cancel()
	f.state = State{}
}

func (s State) copy() State {
	if s.Items != nil {
		s.Items = append([]types.Suggestion(nil), s.Items...)
	}
	return s
}
