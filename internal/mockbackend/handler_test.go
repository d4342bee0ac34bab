package mockbackend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lagunov2003/practice-registry/internal/practiceapi"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

func newClient(t *testing.T) (*practiceapi.Client, *Store) {
	t.Helper()
	store := NewTestStore(t)
	require.NoError(t, store.Seed(context.Background()))
	srv := httptest.NewServer(NewHandler(store, nil).Routes())
	t.Cleanup(srv.Close)
	return practiceapi.New(srv.URL), store
}

func TestEndToEnd_CreateThenFetch(t *testing.T) {
	client, _ := newClient(t)
	ctx := context.Background()

	students, err := client.SearchStudents(ctx, "smirnov")
	require.NoError(t, err)
	require.Len(t, students, 1)
	sups, err := client.SearchSupervisors(ctx, "volkova")
	require.NoError(t, err)
	require.Len(t, sups, 1)

	res, err := client.Create(ctx, types.Practice{
		StudentID:       students[0].ID,
		StudentName:     students[0].Name,
		PracticeType:    types.PracticeEducational,
		University:      students[0].University,
		Faculty:         students[0].Faculty,
		StartDate:       "2026-02-01",
		EndDate:         "2026-03-03",
		UniSupervisorID: types.ID(sups[0].ID),
		Status:          types.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)

	list, err := client.FetchList(ctx, types.FilterSet{StudentName: "Smirnov"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	p := list[0]
	assert.Equal(t, "Smirnov Oleg", p.StudentName)
	assert.Equal(t, "Novosibirsk State University", p.University)
	assert.Equal(t, "2026", p.Year)
	assert.Equal(t, "-", p.Company)
	assert.Equal(t, types.StatusPending, p.Status)
	assert.Nil(t, p.OrganizationID)
	assert.Equal(t, "Volkova Elena", p.UniSupervisorName)

	top, err := client.FetchTop(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "Smirnov Oleg", top[0].StudentName)
}

func TestEndToEnd_GradeAndComplete(t *testing.T) {
	client, _ := newClient(t)
	ctx := context.Background()

	list, err := client.FetchList(ctx, types.FilterSet{Status: "pending", Type: "postgraduate"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	_, err = client.UpdateGrade(ctx, id, "good")
	require.NoError(t, err)
	_, err = client.MarkCompleted(ctx, id)
	require.NoError(t, err)
	_, err = client.MarkCompleted(ctx, id)
	require.NoError(t, err)

	list, err = client.FetchList(ctx, types.FilterSet{Status: "completed", Type: "postgraduate"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "good", list[0].Grade)
	assert.True(t, list[0].Completed())
}

func TestEndToEnd_Top3FromFourRows(t *testing.T) {
	client, _ := newClient(t)

	top, err := client.FetchTop(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "Kuznetsova Maria", top[0].StudentName)
	assert.Equal(t, "JetBrains", top[0].Company)
}

func TestEndToEnd_Errors(t *testing.T) {
	client, _ := newClient(t)
	ctx := context.Background()

	_, err := client.MarkCompleted(ctx, 9999)
	var reqErr *practiceapi.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Equal(t, "practice not found", reqErr.Message)

	_, err = client.Create(ctx, types.Practice{StudentID: 9999, PracticeType: types.PracticeIndustrial, StartDate: "2024-01-01", EndDate: "2024-02-01"})
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.ErrorIs(t, err, practiceapi.ErrRequestFailed)
}

func TestEndToEnd_Lookups(t *testing.T) {
	client, _ := newClient(t)
	ctx := context.Background()

	for domain, query := range map[types.Domain]string{
		types.DomainStudent:      "ivan",
		types.DomainUniversity:   "university",
		types.DomainFaculty:      "physics",
		types.DomainOrganization: "sber",
		types.DomainSupervisor:   "orlov",
	} {
		items, err := client.Lookup(ctx, domain, query)
		require.NoError(t, err, domain)
		require.NotEmpty(t, items, domain)
		for _, it := range items {
			assert.Equal(t, domain, it.Domain)
			assert.True(t, it.Valid())
		}
	}
}

func TestHandler_RejectsBadRequests(t *testing.T) {
	store := NewTestStore(t)
	router := NewHandler(store, nil).Routes()

	cases := []struct {
		method, target, body string
		status               int
	}{
		{http.MethodGet, "/GetNameStudent", "", http.StatusBadRequest},
		{http.MethodGet, "/GetPractice?ContextStatus=maybe", "", http.StatusBadRequest},
		{http.MethodPost, "/PostPractice", `{"student_id":1,"practice_type":"space","start_date":"a","end_date":"b"}`, http.StatusBadRequest},
		{http.MethodPatch, "/PatchGrade", `{"id":"x","grade":"5"}`, http.StatusBadRequest},
		{http.MethodPatch, "/PatchComplete", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
		router.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, tc.target)
		assert.Contains(t, rec.Body.String(), `"status":"error"`, tc.target)
	}
}
