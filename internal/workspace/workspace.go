// Package workspace is the per-session view controller: it owns the current
// view, the loaded list, the applied filters and the open modal, and runs
// the load and save flows against the backend.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/event"
	"github.com/Lagunov2003/practice-registry/internal/form"
	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/observability"
	"github.com/Lagunov2003/practice-registry/internal/practiceapi"
	"github.com/Lagunov2003/practice-registry/internal/suggest"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

// TopCount is the number of records shown on the landing view.
const TopCount = 3

// View is a page of the admin UI.
type View string

const (
	ViewHome     View = "home"
	ViewRegistry View = "registry"
)

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewHome, ViewRegistry:
		return View(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// ModalKind identifies the open modal.
type ModalKind string

const (
	ModalNone   ModalKind = ""
	ModalAdd    ModalKind = "add"
	ModalEdit   ModalKind = "edit"
	ModalFilter ModalKind = "filter"
)

var (
	ErrUnknownView        = errors.New("unknown view")
	ErrNoModal            = errors.New("no modal is open")
	ErrRecordNotFound     = errors.New("practice not in the current list")
	ErrEditUnavailable    = errors.New("practices are edited from the registry view")
	ErrSuggestionNotFound = errors.New("no such suggestion")
)

// Backend is the subset of the transport client the workspace needs.
type Backend interface {
	FetchTop(ctx context.Context, n int) ([]types.Practice, error)
	FetchList(ctx context.Context, filters types.FilterSet) ([]types.Practice, error)
	Create(ctx context.Context, p types.Practice) (practiceapi.Result, error)
	UpdateGrade(ctx context.Context, id int64, grade string) (practiceapi.Result, error)
	MarkCompleted(ctx context.Context, id int64) (practiceapi.Result, error)
}

// Searcher resolves suggestion queries.
type Searcher interface {
	Search(ctx context.Context, domain types.Domain, query string) ([]types.Suggestion, error)
}

// SuggestionFunc receives asynchronous suggestion results of the open modal.
type SuggestionFunc func(field string, st suggest.State)

// Workspace is safe for concurrent use. Operations are serialized, so a
// slow backend call delays the next event of the same session only.
type Workspace struct {
	mu sync.Mutex

	id        string
	backend   Backend
	lookup    Searcher
	recorder  event.Recorder
	log       *zap.Logger
	metrics   *observability.Metrics
	delay     time.Duration
	now       func() time.Time
	onSuggest SuggestionFunc

	view     View
	records  []types.Practice
	loaded   bool
	pageErr  string
	filters  types.FilterSet
	modal    ModalKind
	practice *form.PracticeForm
	filter   *form.FilterForm
	engine   *suggest.Engine
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithID names the workspace; events it causes carry this origin.
func WithID(id string) Option { return func(w *Workspace) { w.id = id } }

func WithRecorder(r event.Recorder) Option { return func(w *Workspace) { w.recorder = r } }

func WithLogger(log *zap.Logger) Option { return func(w *Workspace) { w.log = logging.OrNop(log) } }

func WithMetrics(m *observability.Metrics) Option { return func(w *Workspace) { w.metrics = m } }

// WithSuggestDelay sets the debounce delay of modal autocomplete fields.
func WithSuggestDelay(d time.Duration) Option { return func(w *Workspace) { w.delay = d } }

// WithClock overrides time.Now for create-form defaults.
func WithClock(now func() time.Time) Option { return func(w *Workspace) { w.now = now } }

// WithSuggestionFunc registers the receiver of suggestion updates.
func WithSuggestionFunc(fn SuggestionFunc) Option { return func(w *Workspace) { w.onSuggest = fn } }

// New returns a workspace on the home view with nothing loaded.
func New(backend Backend, lookup Searcher, opts ...Option) *Workspace {
	w := &Workspace{
		backend: backend,
		lookup:  lookup,
		log:     zap.NewNop(),
		delay:   suggest.DefaultDelay,
		now:     time.Now,
		view:    ViewHome,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ID returns the workspace id.
func (w *Workspace) ID() string { return w.id }

// SetView switches the page, closing any modal, and loads it.
func (w *Workspace) SetView(ctx context.Context, v View) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeModalLocked()
	w.view = v
	return w.loadLocked(ctx)
}

// Load fetches the list of the current view and replaces it wholesale.
func (w *Workspace) Load(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loadLocked(ctx)
}

func (w *Workspace) loadLocked(ctx context.Context) error {
	var (
		list []types.Practice
		err  error
	)
	switch w.view {
	case ViewRegistry:
		list, err = w.backend.FetchList(ctx, w.filters)
	default:
		list, err = w.backend.FetchTop(ctx, TopCount)
	}
	w.loaded = true
	if err != nil {
		w.records = nil
		w.pageErr = "load failed: " + err.Error()
		w.log.Error("load failed", zap.String("view", string(w.view)), zap.Error(err))
		return err
	}
	w.records = list
	w.pageErr = ""
	return nil
}

// OpenAdd opens an empty create form.
func (w *Workspace) OpenAdd() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeModalLocked()
	w.engine = w.newEngine(form.PracticeAutocomplete)
	w.practice = form.NewCreate(w.now(), w.engine)
	w.modal = ModalAdd
}

// OpenEdit opens the edit form of a record in the registry list. The
// landing projection lacks the fields an edit save needs.
func (w *Workspace) OpenEdit(id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.view != ViewRegistry {
		return ErrEditUnavailable
	}
	for _, p := range w.records {
		if p.ID == id {
			w.closeModalLocked()
			w.practice = form.NewEdit(p, nil)
			w.modal = ModalEdit
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrRecordNotFound, id)
}

// OpenFilter opens the filter form seeded from the applied filters.
func (w *Workspace) OpenFilter() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeModalLocked()
	w.engine = w.newEngine(form.FilterAutocomplete)
	w.filter = form.NewFilter(w.filters, w.engine)
	w.modal = ModalFilter
}

// CloseModal discards the open draft and cancels its suggestions.
func (w *Workspace) CloseModal() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeModalLocked()
}

func (w *Workspace) closeModalLocked() {
	if w.practice != nil {
		w.practice.Close()
	}
	if w.filter != nil {
		w.filter.Close()
	}
	if w.engine != nil {
		w.engine.Close()
	}
	w.practice, w.filter, w.engine = nil, nil, nil
	w.modal = ModalNone
}

// Input writes a field of the open modal.
func (w *Workspace) Input(field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.modal {
	case ModalAdd, ModalEdit:
		return w.practice.Set(field, value)
	case ModalFilter:
		return w.filter.Set(field, value)
	}
	return ErrNoModal
}

// Select picks the index-th current suggestion of field.
func (w *Workspace) Select(field string, index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.modal == ModalNone {
		return ErrNoModal
	}
	if w.engine == nil {
		return fmt.Errorf("%w: %s has no suggestions", ErrSuggestionNotFound, field)
	}
	items := w.engine.Items(field)
	if index < 0 || index >= len(items) {
		return fmt.Errorf("%w: %s[%d]", ErrSuggestionNotFound, field, index)
	}
	if w.modal == ModalFilter {
		return w.filter.Select(field, items[index])
	}
	return w.practice.Select(field, items[index])
}

// Save submits the practice form. Validation and backend errors stay in
// the modal with the draft intact; success closes it and reloads the list.
func (w *Workspace) Save(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.modal != ModalAdd && w.modal != ModalEdit {
		return ErrNoModal
	}
	if err := w.practice.Submit(ctx, w.persist); err != nil {
		return err
	}
	w.closeModalLocked()
	if err := w.loadLocked(ctx); err != nil {
		w.log.Warn("reload after save failed", zap.Error(err))
	}
	return nil
}

func (w *Workspace) persist(ctx context.Context, s form.Submission) error {
	p := s.Practice
	if s.Mode == form.ModeCreate {
		if _, err := w.backend.Create(ctx, p); err != nil {
			return err
		}
		w.record(ctx, event.NewPracticeCreated(w.id, event.PracticeCreatedPayload{
			StudentID:      p.StudentID,
			StudentName:    p.StudentName,
			PracticeType:   p.PracticeType,
			Company:        p.Company,
			OrganizationID: p.OrganizationID,
			StartDate:      p.StartDate,
			EndDate:        p.EndDate,
		}))
		return nil
	}

	orig := s.Original
	if p.Grade != orig.Grade {
		if _, err := w.backend.UpdateGrade(ctx, orig.ID, p.Grade); err != nil {
			return err
		}
		w.record(ctx, event.NewGradeUpdated(w.id, event.GradeUpdatedPayload{
			PracticeID:    orig.ID,
			StudentID:     orig.StudentID,
			StudentName:   orig.StudentName,
			PreviousGrade: orig.Grade,
			Grade:         p.Grade,
		}))
	}
	if p.Completed() && !orig.Completed() {
		if _, err := w.backend.MarkCompleted(ctx, orig.ID); err != nil {
			return err
		}
		w.record(ctx, event.NewPracticeCompleted(w.id, event.PracticeCompletedPayload{
			PracticeID:  orig.ID,
			StudentID:   orig.StudentID,
			StudentName: orig.StudentName,
			Grade:       p.Grade,
		}))
	}
	return nil
}

func (w *Workspace) record(ctx context.Context, evt event.DomainEvent) {
	if w.recorder == nil {
		return
	}
	if err := w.recorder.Record(ctx, evt); err != nil {
		w.log.Warn("record event failed", zap.String("type", evt.EventType), zap.Error(err))
	}
}

// ApplyFilter applies the filter draft, closes the modal and reloads.
func (w *Workspace) ApplyFilter(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.modal != ModalFilter {
		return ErrNoModal
	}
	w.filters = w.filter.Apply()
	w.closeModalLocked()
	return w.loadLocked(ctx)
}

// ResetFilter empties the filter draft. The applied filters change only
// on the next ApplyFilter.
func (w *Workspace) ResetFilter() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.modal != ModalFilter {
		return ErrNoModal
	}
	w.filter.Reset()
	return nil
}

// Filters returns the applied filters.
func (w *Workspace) Filters() types.FilterSet {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filters
}

func (w *Workspace) newEngine(fields map[string]types.Domain) *suggest.Engine {
	opts := []suggest.Option{
		suggest.WithDelay(w.delay),
		suggest.WithLogger(w.log),
		suggest.WithMetrics(w.metrics),
	}
	if w.onSuggest != nil {
		opts = append(opts, suggest.WithOnChange(suggest.ChangeFunc(w.onSuggest)))
	}
	e := suggest.New(opts...)
	for field, domain := range fields {
		e.Register(field, w.lookupFunc(domain))
	}
	return e
}

func (w *Workspace) lookupFunc(domain types.Domain) suggest.LookupFunc {
	return func(ctx context.Context, query string) ([]types.Suggestion, error) {
		return w.lookup.Search(ctx, domain, query)
	}
}
