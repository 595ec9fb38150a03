package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memActivityStore struct {
	rows   []models.Activity
	cutoff time.Time
}

func (m *memActivityStore) InsertActivity(ctx context.Context, a *models.Activity) (*models.Activity, error) {
	a.ID = primitive.NewObjectID()
	m.rows = append(m.rows, *a)
	return a, nil
}

func (m *memActivityStore) FindActivities(ctx context.Context, f models.ActivityFilter) ([]models.Activity, error) {
	want := map[string]bool{}
	for _, t := range f.Types {
		want[t] = true
	}
	var out []models.Activity
	for _, a := range m.rows {
		if a.UserID != f.UserID || (len(want) > 0 && !want[a.Type]) {
			continue
		}
		if !f.Before.IsZero() && !a.Timestamp.Before(f.Before) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memActivityStore) DeleteActivitiesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	kept := m.rows[:0]
	var n int64
	for _, a := range m.rows {
		if a.Timestamp.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, a)
	}
	m.rows = kept
	return n, nil
}

func newActivityFixture(now time.Time) (*ActivityService, *memActivityStore) {
	store := &memActivityStore{}
	svc := NewActivityService(store, 0)
	svc.now = func() time.Time { return now }
	return svc, store
}

func TestActivityFeedPagesAndFilters(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	svc, _ := newActivityFixture(now)
	user := primitive.NewObjectID()
	ctx := context.Background()

	steps := []struct {
		at  time.Duration
		typ string
	}{
		{-3 * time.Hour, ActivityLessonCompleted},
		{-2 * time.Hour, ActivityBadgeAwarded},
		{-90 * time.Minute, ActivityLessonCompleted},
		{-10 * time.Minute, ActivityChallengeStarted},
	}
	for _, st := range steps {
		svc.now = func() time.Time { return now.Add(st.at) }
		require.NoError(t, svc.LogActivity(ctx, user, st.typ, primitive.NewObjectID(), st.typ))
	}
	svc.now = func() time.Time { return now }
	require.NoError(t, svc.LogActivity(ctx, primitive.NewObjectID(), ActivityLessonCompleted, primitive.NewObjectID(), "outro"))

	page, err := svc.Feed(ctx, models.ActivityFilter{UserID: user, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ActivityChallengeStarted, page[0].Type)
	assert.Equal(t, "há 10 minutos", page[0].When)

	next, err := svc.Feed(ctx, models.ActivityFilter{UserID: user, Limit: 2, Before: page[1].Timestamp})
	require.NoError(t, err)
	require.Len(t, next, 2)
	assert.Equal(t, ActivityBadgeAwarded, next[0].Type)
	assert.Equal(t, "há 3 horas", next[1].When)

	lessons, err := svc.Feed(ctx, models.ActivityFilter{UserID: user, Types: []string{ActivityLessonCompleted}})
	require.NoError(t, err)
	assert.Len(t, lessons, 2)

	recent, err := svc.GetRecentActivities(ctx, user, 500)
	require.NoError(t, err)
	assert.Len(t, recent, 4)
}

func TestActivityFeedRejectsUnknownType(t *testing.T) {
	svc, _ := newActivityFixture(time.Now())

	_, err := svc.Feed(context.Background(), models.ActivityFilter{UserID: primitive.NewObjectID(), Types: []string{"login"}})
	_, ok := validation.AsError(err)
	assert.True(t, ok)
}

func TestActivityFeedEmptyIsNotNil(t *testing.T) {
	svc, _ := newActivityFixture(time.Now())

	acts, err := svc.GetRecentActivities(context.Background(), primitive.NewObjectID(), 0)
	require.NoError(t, err)
	assert.NotNil(t, acts)
	assert.Empty(t, acts)
}

func TestPruneActivitiesUsesRetention(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	svc, store := newActivityFixture(now)
	user := primitive.NewObjectID()
	store.rows = []models.Activity{
		{UserID: user, Type: ActivityLessonCompleted, Timestamp: now.Add(-200 * 24 * time.Hour)},
		{UserID: user, Type: ActivityBadgeAwarded, Timestamp: now.Add(-24 * time.Hour)},
	}

	n, err := svc.PruneActivities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, now.Add(-DefaultActivityRetention), store.cutoff)
	require.Len(t, store.rows, 1)
	assert.Equal(t, ActivityBadgeAwarded, store.rows[0].Type)
}
