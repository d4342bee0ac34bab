package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Lagunov2003/practice-registry/internal/activity"
	"github.com/Lagunov2003/practice-registry/internal/event"
	"github.com/Lagunov2003/practice-registry/internal/lookup"
	"github.com/Lagunov2003/practice-registry/internal/practiceapi"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

type mockBackend struct{ mock.Mock }

func (m *mockBackend) FetchTop(ctx context.Context, n int) ([]types.Practice, error) {
	args := m.Called(ctx, n)
	list, _ := args.Get(0).([]types.Practice)
	return list, args.Error(1)
}

func (m *mockBackend) FetchList(ctx context.Context, f types.FilterSet) ([]types.Practice, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]types.Practice)
	return list, args.Error(1)
}

func (m *mockBackend) Create(ctx context.Context, p types.Practice) (practiceapi.Result, error) {
	args := m.Called(ctx, p)
	return practiceapi.Result{Status: "success"}, args.Error(0)
}

func (m *mockBackend) UpdateGrade(ctx context.Context, id int64, grade string) (practiceapi.Result, error) {
	args := m.Called(ctx, id, grade)
	return practiceapi.Result{Status: "success"}, args.Error(0)
}

func (m *mockBackend) MarkCompleted(ctx context.Context, id int64) (practiceapi.Result, error) {
	args := m.Called(ctx, id)
	return practiceapi.Result{Status: "success"}, args.Error(0)
}

type fixture struct {
	backend *mockBackend
	store   *activity.MemoryStore
	router  chi.Router
}

func newFixture(search lookup.Func) *fixture {
	f := &fixture{backend: &mockBackend{}, store: activity.NewMemoryStore(0)}
	rec := event.NewActivityRecorder(f.store)
	ph := NewPracticeHandler(f.backend, rec, nil)
	pages := NewPageHandler(f.backend, nil)
	ah := NewActivityHandler(f.store, nil)

	r := chi.NewRouter()
	r.Get("/", pages.Landing)
	r.Get("/registry", pages.Registry)
	r.Get("/api/top", ph.GetTop)
	r.Get("/api/practices", ph.ListPractices)
	r.Post("/api/practices", ph.CreatePractice)
	r.Patch("/api/practices/{id}/grade", ph.UpdateGrade)
	r.Post("/api/practices/{id}/complete", ph.CompletePractice)
	r.Get("/api/activity", ah.HandleGetActivity)
	if search != nil {
		lh := NewLookupHandler(lookup.NewService(search, nil, nil, nil), nil)
		r.Get("/api/lookup/{domain}", lh.Search)
	}
	f.router = r
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func backendErr() error {
	return &practiceapi.RequestError{Endpoint: "/GetPractice", StatusCode: 500, Message: "db down"}
}

func TestGetTop(t *testing.T) {
	f := newFixture(nil)
	f.backend.On("FetchTop", mock.Anything, 3).Return([]types.Practice{{ID: 1}, {ID: 2}}, nil)

	rec := f.do(http.MethodGet, "/api/top", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["practices"], 2)
}

func TestListPractices_PassesFilters(t *testing.T) {
	f := newFixture(nil)
	want := types.FilterSet{Year: "2024", Status: "completed", StudentName: "Iva", Company: "Acme"}
	f.backend.On("FetchList", mock.Anything, want).Return(nil, nil)

	rec := f.do(http.MethodGet, "/api/practices?year=2024&status=completed&student=Iva&company=Acme", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []any{}, body["practices"])
	assert.EqualValues(t, 0, body["total_count"])
	f.backend.AssertExpectations(t)
}

func TestListPractices_BackendErrorIs502(t *testing.T) {
	f := newFixture(nil)
	f.backend.On("FetchList", mock.Anything, types.FilterSet{}).Return(nil, backendErr())

	rec := f.do(http.MethodGet, "/api/practices", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "db down", decodeBody(t, rec)["error"])
}

func TestCreatePractice_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"missing fields", `{"studentName":"Ivanov"}`, "Fill in all required fields"},
		{"industrial without company", `{"studentName":"Ivanov","university":"MSU","faculty":"CS","startDate":"2024-06-01","endDate":"2024-07-01","practiceType":"industrial"}`, "organization"},
		{"unresolved supervisor", `{"studentName":"Ivanov","university":"MSU","faculty":"CS","startDate":"2024-06-01","endDate":"2024-07-01","practiceType":"educational"}`, "supervisor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(nil)
			rec := f.do(http.MethodPost, "/api/practices", tc.body)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, strings.ToLower(decodeBody(t, rec)["error"].(string)), strings.ToLower(tc.msg))
			f.backend.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreatePractice_Success(t *testing.T) {
	f := newFixture(nil)
	f.backend.On("Create", mock.Anything, mock.MatchedBy(func(p types.Practice) bool {
		return p.StudentName == "Ivanov" && p.Year == "2024" && p.OrganizationID == nil
	})).Return(nil)

	rec := f.do(http.MethodPost, "/api/practices", `{"studentId":3,"studentName":"Ivanov","university":"MSU","faculty":"CS",
		"startDate":"2024-06-01","endDate":"2024-07-01","practiceType":"educational","uniSupervisorId":5,"organizationId":0}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	f.backend.AssertExpectations(t)
	entries, _, total, err := f.store.QueryByEntity(context.Background(), "student", "3", activity.DefaultQueryOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, event.TypePracticeCreated, entries[0].EventType)
}

func TestCreatePractice_InvalidBody(t *testing.T) {
	f := newFixture(nil)
	rec := f.do(http.MethodPost, "/api/practices", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateGrade(t *testing.T) {
	f := newFixture(nil)
	f.backend.On("UpdateGrade", mock.Anything, int64(7), "5").Return(nil)

	rec := f.do(http.MethodPatch, "/api/practices/7/grade", `{"grade":" 5 "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	f.backend.AssertExpectations(t)
	_, _, total, _ := f.store.QueryByEntity(context.Background(), "practice", "7", activity.DefaultQueryOptions())
	assert.Equal(t, 1, total)
}

func TestUpdateGrade_InvalidID(t *testing.T) {
	f := newFixture(nil)
	rec := f.do(http.MethodPatch, "/api/practices/abc/grade", `{"grade":"5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", decodeBody(t, rec)["code"])
}

func TestCompletePractice_FailureRecordsNothing(t *testing.T) {
	f := newFixture(nil)
	f.backend.On("MarkCompleted", mock.Anything, int64(7)).Return(backendErr())

	rec := f.do(http.MethodPost, "/api/practices/7/complete", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	recent, err := f.store.Recent(context.Background(), activity.DefaultQueryOptions())
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestActivity_RecentAndByEntity(t *testing.T) {
	f := newFixture(nil)
	f.backend.On("MarkCompleted", mock.Anything, mock.Anything).Return(nil)
	f.do(http.MethodPost, "/api/practices/7/complete", "")
	f.do(http.MethodPost, "/api/practices/8/complete", "")

	rec := f.do(http.MethodGet, "/api/activity", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody(t, rec)["activities"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "8", list[0].(map[string]any)["indexed_entity_id"])

	rec = f.do(http.MethodGet, "/api/activity?entity_type=practice&entity_id=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["total_count"])

	rec = f.do(http.MethodGet, "/api/activity?entity_type=practice", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookup(t *testing.T) {
	var calls int
	f := newFixture(func(_ context.Context, d types.Domain, q string) ([]types.Suggestion, error) {
		calls++
		return []types.Suggestion{types.UniversitySuggestion("MSU")}, nil
	})

	rec := f.do(http.MethodGet, "/api/lookup/university?q=MS", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeBody(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "MSU", items[0].(map[string]any)["text"])

	rec = f.do(http.MethodGet, "/api/lookup/university?q=", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/lookup/planet?q=x", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestPages(t *testing.T) {
	f := newFixture(nil)
	f.backend.On("FetchTop", mock.Anything, 3).Return([]types.Practice{
		{ID: 1, StudentName: "Ivanov", Company: "Acme", Status: types.StatusCompleted},
	}, nil)
	f.backend.On("FetchList", mock.Anything, types.FilterSet{Year: "2030"}).Return(nil, nil)

	rec := f.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ivanov")
	assert.Contains(t, rec.Body.String(), "Completed")

	rec = f.do(http.MethodGet, "/registry?year=2030", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no practices match the filters")
}

func TestRegistryPage_ShowsLoadError(t *testing.T) {
	f := newFixture(nil)
	f.backend.On("FetchList", mock.Anything, types.FilterSet{}).Return(nil, backendErr())

	rec := f.do(http.MethodGet, "/registry", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "load failed: db down")
	assert.NotContains(t, rec.Body.String(), "no practices match")
}

func TestWriteJSON_EncodeFailureLogsToHandlerLogger(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	rec := httptest.NewRecorder()

	writeJSON(rec, zap.New(core), http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, logs.FilterMessage("writeJSON encode error").Len())
}
