package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Lagunov2003/practice-registry/internal/activity"
	"github.com/Lagunov2003/practice-registry/internal/event"
	"github.com/Lagunov2003/practice-registry/internal/form"
	"github.com/Lagunov2003/practice-registry/internal/practiceapi"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

type mockBackend struct {
	mock.Mock
}

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

type staticSearcher map[types.Domain][]types.Suggestion

func (s staticSearcher) Search(_ context.Context, d types.Domain, _ string) ([]types.Suggestion, error) {
	return s[d], nil
}

var (
	ctx   = context.Background()
	clock = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
)

func pending(id int64) types.Practice {
	return types.Practice{
		ID: id, StudentID: 3, StudentName: "Ivanov", University: "MSU", Faculty: "CS",
		PracticeType: types.PracticeEducational, Status: types.StatusPending, Grade: "",
		StartDate: "2024-02-01", EndDate: "2024-03-01",
	}
}

func TestLoad_HomeFetchesTop(t *testing.T) {
	b := &mockBackend{}
	b.On("FetchTop", mock.Anything, TopCount).Return([]types.Practice{pending(1), pending(2)}, nil)
	w := New(b, nil)

	require.NoError(t, w.Load(ctx))
	snap := w.Snapshot()
	assert.Equal(t, ViewHome, snap.View)
	assert.True(t, snap.Loaded)
	assert.Len(t, snap.Records, 2)
	b.AssertExpectations(t)
}

func TestLoad_ErrorClearsList(t *testing.T) {
	b := &mockBackend{}
	b.On("FetchTop", mock.Anything, TopCount).Return([]types.Practice{pending(1)}, nil).Once()
	b.On("FetchTop", mock.Anything, TopCount).Return(nil, errors.New("server error: 502 Bad Gateway")).Once()
	w := New(b, nil)

	require.NoError(t, w.Load(ctx))
	require.Error(t, w.Load(ctx))

	snap := w.Snapshot()
	assert.Empty(t, snap.Records)
	assert.Equal(t, "load failed: server error: 502 Bad Gateway", snap.Error)
}

func TestFilterFlow(t *testing.T) {
	b := &mockBackend{}
	b.On("FetchList", mock.Anything, types.FilterSet{}).Return([]types.Practice{pending(1), pending(2)}, nil).Once()
	applied := types.FilterSet{Year: "2024", Status: "completed"}
	b.On("FetchList", mock.Anything, applied).Return([]types.Practice{pending(2)}, nil).Once()
	w := New(b, staticSearcher{})

	require.NoError(t, w.SetView(ctx, ViewRegistry))
	w.OpenFilter()
	require.NoError(t, w.Input(form.FieldYear, "2024"))
	require.NoError(t, w.Input(form.FieldStatus, "completed"))
	require.NoError(t, w.ApplyFilter(ctx))

	snap := w.Snapshot()
	assert.Nil(t, snap.Modal)
	assert.Equal(t, applied, snap.Filters)
	assert.Len(t, snap.Records, 1)

	w.OpenFilter()
	assert.Equal(t, applied, *w.Snapshot().Modal.Filter, "draft seeded from applied filters")
	require.NoError(t, w.ResetFilter())
	assert.True(t, w.Snapshot().Modal.Filter.IsEmpty())
	assert.Equal(t, applied, w.Filters(), "reset does not apply")
	b.AssertExpectations(t)
}

func TestSave_CreateValidationMakesNoCalls(t *testing.T) {
	b := &mockBackend{}
	w := New(b, staticSearcher{}, WithClock(clock))
	w.OpenAdd()
	require.NoError(t, w.Input(form.FieldStudentName, "Ivanov"))
	require.NoError(t, w.Input(form.FieldUniversity, "MSU"))
	require.NoError(t, w.Input(form.FieldFaculty, "CS"))

	err := w.Save(ctx)
	require.ErrorIs(t, err, form.ErrOrganizationRequiredForIndustrial)
	snap := w.Snapshot()
	require.NotNil(t, snap.Modal)
	assert.Equal(t, ModalAdd, snap.Modal.Kind)
	assert.Equal(t, form.ErrOrganizationRequiredForIndustrial.Error(), snap.Modal.Error)
	assert.Equal(t, "2024-03-01", snap.Modal.Draft.StartDate)
	b.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSave_CreateWithSuggestions(t *testing.T) {
	b := &mockBackend{}
	b.On("Create", mock.Anything, mock.MatchedBy(func(p types.Practice) bool {
		return p.StudentID == 1 && types.IDValue(p.UniSupervisorID) == 11 && types.IDValue(p.OrganizationID) == 4
	})).Return(nil).Once()
	b.On("FetchTop", mock.Anything, TopCount).Return([]types.Practice{pending(9)}, nil).Once()
	search := staticSearcher{
		types.DomainStudent:      {types.StudentSuggestion(types.StudentRef{ID: 1, Name: "Ivanov", University: "MSU", Faculty: "CS"})},
		types.DomainOrganization: {types.OrganizationSuggestion(4, "Acme")},
		types.DomainSupervisor:   {types.SupervisorSuggestion(11, "Orlov")},
	}
	store := activity.NewMemoryStore(0)
	w := New(b, search, WithClock(clock), WithSuggestDelay(time.Millisecond), WithID("sess-1"),
		WithRecorder(event.NewActivityRecorder(store)))

	w.OpenAdd()
	pick := func(field, text string) {
		t.Helper()
		require.NoError(t, w.Input(field, text))
		require.Eventually(t, func() bool {
			st, ok := w.Snapshot().Modal.Suggestions[field]
			return ok && st.Searched
		}, time.Second, 2*time.Millisecond)
		require.NoError(t, w.Select(field, 0))
	}
	require.NoError(t, w.Input(form.FieldUniversity, "typed"))
	pick(form.FieldStudentName, "Iv")
	pick(form.FieldCompany, "Ac")
	pick(form.FieldUniSupervisor, "Or")
	assert.Equal(t, "MSU", w.Snapshot().Modal.Draft.University)
	assert.ErrorIs(t, w.Select(form.FieldCompany, 5), ErrSuggestionNotFound)

	require.NoError(t, w.Save(ctx))
	snap := w.Snapshot()
	assert.Nil(t, snap.Modal)
	assert.Len(t, snap.Records, 1)
	b.AssertExpectations(t)

	recent, err := store.Recent(ctx, activity.DefaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, event.TypePracticeCreated, recent[0].EventType)
}

func TestSave_CreateBackendErrorKeepsDraft(t *testing.T) {
	b := &mockBackend{}
	b.On("Create", mock.Anything, mock.Anything).Return(&practiceapi.RequestError{Message: "student not found"})
	search := staticSearcher{types.DomainSupervisor: {types.SupervisorSuggestion(11, "Orlov")}}
	w := New(b, search, WithClock(clock), WithSuggestDelay(time.Millisecond))
	w.OpenAdd()
	require.NoError(t, w.Input(form.FieldStudentName, "Ivanov"))
	require.NoError(t, w.Input(form.FieldUniversity, "MSU"))
	require.NoError(t, w.Input(form.FieldFaculty, "CS"))
	require.NoError(t, w.Input(form.FieldPracticeType, "postgraduate"))
	require.NoError(t, w.Input(form.FieldUniSupervisor, "Or"))
	require.Eventually(t, func() bool {
		return len(w.Snapshot().Modal.Suggestions[form.FieldUniSupervisor].Items) == 1
	}, time.Second, 2*time.Millisecond)
	require.NoError(t, w.Select(form.FieldUniSupervisor, 0))

	err := w.Save(ctx)
	require.ErrorIs(t, err, practiceapi.ErrRequestFailed)
	snap := w.Snapshot()
	require.NotNil(t, snap.Modal)
	assert.Equal(t, "student not found", snap.Modal.Error)
	assert.Equal(t, "Ivanov", snap.Modal.Draft.StudentName)
	b.AssertNotCalled(t, "FetchTop", mock.Anything, mock.Anything)
}

func TestSave_EditUpdatesGradeAndCompletes(t *testing.T) {
	b := &mockBackend{}
	b.On("FetchList", mock.Anything, mock.Anything).Return([]types.Practice{pending(7)}, nil).Once()
	b.On("UpdateGrade", mock.Anything, int64(7), "5").Return(nil).Once()
	b.On("MarkCompleted", mock.Anything, int64(7)).Return(nil).Once()
	done := pending(7)
	done.Status, done.Grade = types.StatusCompleted, "5"
	b.On("FetchList", mock.Anything, mock.Anything).Return([]types.Practice{done}, nil).Once()
	store := activity.NewMemoryStore(0)
	w := New(b, nil, WithRecorder(event.NewActivityRecorder(store)))

	require.NoError(t, w.SetView(ctx, ViewRegistry))
	require.NoError(t, w.OpenEdit(7))
	assert.ErrorIs(t, w.Input(form.FieldUniversity, "SPbU"), form.ErrFieldReadOnly)
	require.NoError(t, w.Input(form.FieldGrade, "5"))
	require.NoError(t, w.Input(form.FieldStatus, "completed"))
	require.NoError(t, w.Save(ctx))

	b.AssertExpectations(t)
	snap := w.Snapshot()
	assert.Equal(t, types.StatusCompleted, snap.Records[0].Status)

	entries, _, _, err := store.QueryByEntity(ctx, "practice", "7", activity.DefaultQueryOptions())
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, w.OpenEdit(7))
	assert.True(t, w.Snapshot().Modal.Locked)
	assert.Empty(t, w.Snapshot().Modal.Editable)
}

func TestSave_EditUnchangedMakesNoCalls(t *testing.T) {
	b := &mockBackend{}
	b.On("FetchList", mock.Anything, mock.Anything).Return([]types.Practice{pending(7)}, nil)
	w := New(b, nil)
	require.NoError(t, w.SetView(ctx, ViewRegistry))
	require.NoError(t, w.OpenEdit(7))

	require.NoError(t, w.Save(ctx))
	b.AssertNotCalled(t, "UpdateGrade", mock.Anything, mock.Anything, mock.Anything)
	b.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything)
}

func TestModalErrors(t *testing.T) {
	w := New(&mockBackend{}, nil)

	assert.ErrorIs(t, w.Input(form.FieldGrade, "5"), ErrNoModal)
	assert.ErrorIs(t, w.Save(ctx), ErrNoModal)
	assert.ErrorIs(t, w.ApplyFilter(ctx), ErrNoModal)
	assert.ErrorIs(t, w.OpenEdit(42), ErrEditUnavailable)

	_, err := ParseView("settings")
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestOpenEdit_OnlyFromRegistry(t *testing.T) {
	b := &mockBackend{}
	top := types.Practice{ID: 7, StudentName: "Ivanov", PracticeType: types.PracticeEducational, Status: types.StatusPending}
	b.On("FetchTop", mock.Anything, TopCount).Return([]types.Practice{top}, nil)
	b.On("FetchList", mock.Anything, mock.Anything).Return([]types.Practice{pending(7)}, nil)
	w := New(b, nil)

	require.NoError(t, w.Load(ctx))
	assert.ErrorIs(t, w.OpenEdit(7), ErrEditUnavailable)
	assert.Nil(t, w.Snapshot().Modal)

	require.NoError(t, w.SetView(ctx, ViewRegistry))
	assert.ErrorIs(t, w.OpenEdit(42), ErrRecordNotFound)
	require.NoError(t, w.OpenEdit(7))
	require.NoError(t, w.Input(form.FieldGrade, "4"))
	b.On("UpdateGrade", mock.Anything, int64(7), "4").Return(nil).Once()
	require.NoError(t, w.Save(ctx))
	b.AssertCalled(t, "UpdateGrade", mock.Anything, int64(7), "4")
}

func TestCloseModalDropsDraft(t *testing.T) {
	w := New(&mockBackend{}, staticSearcher{}, WithClock(clock))
	w.OpenAdd()
	require.NoError(t, w.Input(form.FieldStudentName, "Iv"))
	w.CloseModal()

	assert.Nil(t, w.Snapshot().Modal)
	w.OpenAdd()
	assert.Empty(t, w.Snapshot().Modal.Draft.StudentName)
}
