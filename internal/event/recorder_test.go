package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lagunov2003/practice-registry/internal/activity"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

type capturePublisher struct {
	events []DomainEvent
}

func (c *capturePublisher) Publish(_ context.Context, evt DomainEvent) {
	c.events = append(c.events, evt)
}

func TestActivityRecorder_FansOutAndPublishes(t *testing.T) {
	ctx := context.Background()
	store := activity.NewMemoryStore(0)
	pub := &capturePublisher{}
	rec := NewActivityRecorder(store, WithPublisher(pub))

	evt := NewPracticeCompleted("sess-1", PracticeCompletedPayload{PracticeID: 7, StudentID: 3, StudentName: "Ivanov"})
	require.NoError(t, rec.Record(ctx, evt))

	byPractice, _, total, err := store.QueryByEntity(ctx, "practice", "7", activity.DefaultQueryOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, TypePracticeCompleted, byPractice[0].EventType)

	byStudent, _, _, err := store.QueryByEntity(ctx, "student", "3", activity.DefaultQueryOptions())
	require.NoError(t, err)
	require.Len(t, byStudent, 1)
	assert.Equal(t, "related", byStudent[0].EntityRole)
	assert.Equal(t, "sess-1", byStudent[0].Origin)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "sess-1", pub.events[0].Origin)
}

func TestNewPracticeCreated_RefsOrganization(t *testing.T) {
	evt := NewPracticeCreated("", PracticeCreatedPayload{
		StudentID: 3, StudentName: "Ivanov", PracticeType: types.PracticeIndustrial, OrganizationID: types.ID(4),
	})

	assert.Equal(t, TypePracticeCreated, evt.EventType)
	assert.Equal(t, []types.SourceRef{
		{EntityType: "student", EntityID: "3", Role: "subject"},
		{EntityType: "organization", EntityID: "4", Role: "context"},
	}, evt.AffectedEntities)
	assert.Contains(t, evt.Summary, "Ivanov")
	assert.JSONEq(t, `{"student_id":3,"student_name":"Ivanov","practice_type":"industrial","organization_id":4,"start_date":"","end_date":""}`, string(evt.Payload))
}

func TestNewGradeUpdated_OmitsUnknownStudent(t *testing.T) {
	evt := NewGradeUpdated("", GradeUpdatedPayload{PracticeID: 9, Grade: "5"})

	assert.Equal(t, []types.SourceRef{{EntityType: "practice", EntityID: "9", Role: "subject"}}, evt.AffectedEntities)
	assert.Equal(t, `Grade of practice 9 set to "5"`, evt.Summary)
}

func TestActivityRecorder_RejectsEventWithoutEntities(t *testing.T) {
	store := activity.NewMemoryStore(0)
	pub := &capturePublisher{}
	rec := NewActivityRecorder(store, WithPublisher(pub))

	err := rec.Record(context.Background(), DomainEvent{ID: "e1", EventType: TypePracticeCompleted})
	require.ErrorIs(t, err, ErrNoAffectedEntities)

	recent, err := store.Recent(context.Background(), activity.DefaultQueryOptions())
	require.NoError(t, err)
	assert.Empty(t, recent)
	assert.Empty(t, pub.events)
}

type failingStore struct{ activity.Store }

func (failingStore) WriteEntries(context.Context, []types.ActivityEntry) error {
	return errors.New("disk full")
}

func TestActivityRecorder_WriteFailureSkipsPublish(t *testing.T) {
	pub := &capturePublisher{}
	rec := NewActivityRecorder(failingStore{}, WithPublisher(pub))

	err := rec.Record(context.Background(), NewPracticeCompleted("", PracticeCompletedPayload{PracticeID: 7}))
	require.EqualError(t, err, "disk full")
	assert.Empty(t, pub.events)
}

func TestEntries_OnePerEntity(t *testing.T) {
	evt := NewGradeUpdated("sess-2", GradeUpdatedPayload{PracticeID: 9, StudentID: 3, Grade: "4"})

	entries := Entries(evt)
	require.Len(t, entries, 2)
	assert.Equal(t, "practice", entries[0].IndexedEntityType)
	assert.Equal(t, "student", entries[1].IndexedEntityType)
	for _, e := range entries {
		assert.Equal(t, evt.ID, e.EventID)
		assert.Equal(t, "sess-2", e.Origin)
		assert.Equal(t, evt.AffectedEntities, e.SourceRefs)
	}
}
