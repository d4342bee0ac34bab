package suggest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lagunov2003/practice-registry/internal/types"
)

// recorder is a LookupFunc that records queries and can block responses.
type recorder struct {
	mu      sync.Mutex
	queries []string
	gate    map[string]chan struct{}
	err     error
}

func newRecorder() *recorder {
	return &recorder{gate: map[string]chan struct{}{}}
}

func (r *recorder) block(query string) chan struct{} {
	ch := make(chan struct{})
	r.mu.Lock()
	r.gate[query] = ch
	r.mu.Unlock()
	return ch
}

func (r *recorder) lookup(ctx context.Context, q string) ([]types.Suggestion, error) {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	gate := r.gate[q]
	err := r.err
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return []types.Suggestion{types.UniversitySuggestion(q + " result")}, nil
}

func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func TestOnInput_DebouncesToLastKeystroke(t *testing.T) {
	rec := newRecorder()
	e := New(WithDelay(30 * time.Millisecond))
	e.Register("university", rec.lookup)

	e.OnInput("university", "I")
	e.OnInput("university", "Iv")
	e.OnInput("university", "Iva")

	require.Eventually(t, func() bool { return e.State("university").Searched }, time.Second, 5*time.Millisecond)
	e.Wait()
	assert.Equal(t, []string{"Iva"}, rec.calls())
	st := e.State("university")
	assert.Equal(t, "Iva", st.Query)
	assert.False(t, st.Pending)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Iva result", st.Items[0].Label())
}

func TestOnInput_EmptyClearsWithoutCall(t *testing.T) {
	rec := newRecorder()
	e := New(WithDelay(10 * time.Millisecond))
	e.Register("student", rec.lookup)

	e.OnInput("student", "Ol")
	require.Eventually(t, func() bool { return len(e.Items("student")) == 1 }, time.Second, 5*time.Millisecond)

	e.OnInput("student", "")
	st := e.State("student")
	assert.Empty(t, st.Items)
	assert.False(t, st.Pending)
	assert.False(t, st.Searched)

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, []string{"Ol"}, rec.calls())
}

func TestEmptyResultIsSearched(t *testing.T) {
	e := New(WithDelay(5 * time.Millisecond))
	e.Register("faculty", func(ctx context.Context, q string) ([]types.Suggestion, error) { return nil, nil })

	e.OnInput("faculty", "zz")
	assert.False(t, e.State("faculty").Searched)
	require.Eventually(t, func() bool { return e.State("faculty").Searched }, time.Second, 5*time.Millisecond)
	assert.NotNil(t, e.State("faculty").Items)
	assert.Empty(t, e.State("faculty").Items)
}

func TestStaleResponseDiscarded(t *testing.T) {
	rec := newRecorder()
	slow := rec.block("Iv")
	e := New(WithDelay(5 * time.Millisecond))
	e.Register("student", rec.lookup)

	e.OnInput("student", "Iv")
	require.Eventually(t, func() bool { return len(rec.calls()) == 1 }, time.Second, 5*time.Millisecond)

	e.OnInput("student", "Ivan")
	require.Eventually(t, func() bool { return e.State("student").Searched }, time.Second, 5*time.Millisecond)

	close(slow)
	e.Wait()
	st := e.State("student")
	assert.Equal(t, "Ivan", st.Query)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Ivan result", st.Items[0].Label())
}

func TestLookupFailureKeepsItems(t *testing.T) {
	rec := newRecorder()
	e := New(WithDelay(5 * time.Millisecond))
	e.Register("organization", rec.lookup)

	e.OnInput("organization", "Ac")
	require.Eventually(t, func() bool { return e.State("organization").Searched }, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	rec.err = errors.New("backend down")
	rec.mu.Unlock()
	e.OnInput("organization", "Acm")
	require.Eventually(t, func() bool { return !e.State("organization").Pending }, time.Second, 5*time.Millisecond)

	st := e.State("organization")
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Ac result", st.Items[0].Label())
	assert.False(t, st.Searched)
}

func TestSelectCancelsPendingTimer(t *testing.T) {
	rec := newRecorder()
	e := New(WithDelay(20 * time.Millisecond))
	e.Register("supervisor", rec.lookup)

	e.OnInput("supervisor", "Or")
	e.Select("supervisor")

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.calls())
	assert.Equal(t, State{}, e.State("supervisor"))
}

func TestCloseIgnoresLaterResponses(t *testing.T) {
	rec := newRecorder()
	gate := rec.block("MS")
	var changes int
	var mu sync.Mutex
	e := New(WithDelay(5*time.Millisecond), WithOnChange(func(string, State) {
		mu.Lock()
		changes++
		mu.Unlock()
	}))
	e.Register("university", rec.lookup)
	e.Register("faculty", rec.lookup)

	e.OnInput("university", "MS")
	e.OnInput("faculty", "CS")
	require.Eventually(t, func() bool { return len(rec.calls()) >= 1 }, time.Second, 5*time.Millisecond)
	e.Close()
	close(gate)
	e.Wait()

	assert.Equal(t, State{}, e.State("university"))
	assert.Equal(t, State{}, e.State("faculty"))
	e.OnInput("university", "again")
	assert.Equal(t, State{}, e.State("university"))

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, changes, 1)
}

func TestFieldsAreIndependent(t *testing.T) {
	rec := newRecorder()
	e := New(WithDelay(5 * time.Millisecond))
	e.Register("university", rec.lookup)
	e.Register("faculty", rec.lookup)

	e.OnInput("university", "MS")
	e.OnInput("faculty", "CS")
	require.Eventually(t, func() bool {
		return e.State("university").Searched && e.State("faculty").Searched
	}, time.Second, 5*time.Millisecond)

	assert.ElementsMatch(t, []string{"MS", "CS"}, rec.calls())
	e.OnInput("unknown", "x")
	assert.False(t, e.Has("unknown"))
}
