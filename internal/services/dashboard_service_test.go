package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n8nhub/community_hub/internal/chain"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/repository"
	"github.com/n8nhub/community_hub/pkg/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeDashboardStore struct {
	banners []models.DashboardBanner
	sidebar *models.SidebarSettings
}

func (f *fakeDashboardStore) CreateBanner(ctx context.Context, b *models.DashboardBanner) (*models.DashboardBanner, error) {
	b.ID = primitive.NewObjectID()
	f.banners = append(f.banners, *b)
	return b, nil
}

func (f *fakeDashboardStore) UpdateBanner(ctx context.Context, b *models.DashboardBanner) error {
	return nil
}

func (f *fakeDashboardStore) DeleteBanner(ctx context.Context, id primitive.ObjectID) error {
	return nil
}

func (f *fakeDashboardStore) GetBanners(ctx context.Context, activeOnly bool) ([]models.DashboardBanner, error) {
	var out []models.DashboardBanner
	for _, b := range f.banners {
		if !activeOnly || b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeDashboardStore) GetSidebar(ctx context.Context) (*models.SidebarSettings, error) {
	if f.sidebar == nil {
		return nil, repository.ErrNotFound
	}
	return f.sidebar, nil
}

func (f *fakeDashboardStore) SaveSidebar(ctx context.Context, s *models.SidebarSettings) error {
	f.sidebar = s
	return nil
}

type stubGamification struct{ err error }

func (s stubGamification) Summary(ctx context.Context, userID primitive.ObjectID) (*GamificationSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &GamificationSummary{XPLabel: "10 XP"}, nil
}

type stubChallenges struct{}

func (stubChallenges) Progress(ctx context.Context, userID primitive.ObjectID) ([]ProgressView, error) {
	return []ProgressView{{Status: chain.StatusActive, Title: "Ativo"}, {Status: chain.StatusCompleted}}, nil
}

func (stubChallenges) Recommended(ctx context.Context, userID primitive.ObjectID) ([]ChallengeView, error) {
	return make([]ChallengeView, 5), nil
}

type stubCourses struct{}

func (stubCourses) Modules(ctx context.Context, userID primitive.ObjectID, includeDrafts bool) ([]ModuleView, error) {
	return []ModuleView{
		{Module: models.Module{Title: "Feito"}, CompletedCount: 2, TotalCount: 2},
		{Module: models.Module{Title: "Próximo"}, CompletedCount: 1, TotalCount: 4},
	}, nil
}

func TestBannersVisibleWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)
	store := &fakeDashboardStore{banners: []models.DashboardBanner{
		{Title: "sempre", Active: true},
		{Title: "futuro", Active: true, StartsAt: &future},
		{Title: "acabou", Active: true, EndsAt: &past},
		{Title: "agora", Active: true, StartsAt: &past, EndsAt: &future},
		{Title: "inativo", Active: false},
	}}
	svc := NewDashboardService(store, nil, nil, nil, nil)
	svc.now = func() time.Time { return now }

	got, err := svc.Banners(context.Background())
	require.NoError(t, err)
	titles := []string{}
	for _, b := range got {
		titles = append(titles, b.Title)
	}
	assert.Equal(t, []string{"sempre", "agora"}, titles)
}

func TestCreateBannerRejectsInvertedWindow(t *testing.T) {
	svc := NewDashboardService(&fakeDashboardStore{}, nil, nil, nil, nil)
	start := time.Now()
	end := start.Add(-time.Minute)

	_, err := svc.CreateBanner(context.Background(), &models.DashboardBanner{Title: "x", StartsAt: &start, EndsAt: &end})
	ve, ok := validation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "ends_at", ve.Fields[0].Field)
}

func TestSidebarDefaultsAndSave(t *testing.T) {
	store := &fakeDashboardStore{}
	svc := NewDashboardService(store, nil, nil, nil, nil)
	ctx := context.Background()

	items, err := svc.Sidebar(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultSidebar, items)

	_, err = svc.SaveSidebar(ctx, []models.SidebarItem{
		{Key: "mentorship", Label: "Mentoria", Visible: false, OrderIndex: 8},
		{Key: "challenges", Label: "Desafios", Visible: true, OrderIndex: 0},
	})
	require.NoError(t, err)

	visible, err := svc.Sidebar(ctx, false)
	require.NoError(t, err)
	assert.Len(t, visible, len(DefaultSidebar)-1)
	assert.Equal(t, "challenges", visible[0].Key)
	assert.Equal(t, "Desafios", visible[0].Label)

	all, err := svc.Sidebar(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, len(DefaultSidebar))

	_, err = svc.SaveSidebar(ctx, []models.SidebarItem{{Key: "a", Label: "A"}, {Key: "a", Label: "B"}})
	assert.Error(t, err)
}

func TestSummaryDegradesFailedSections(t *testing.T) {
	store := &fakeDashboardStore{banners: []models.DashboardBanner{{Title: "oi", Active: true}}}
	svc := NewDashboardService(store, stubGamification{err: errors.New("boom")}, stubChallenges{}, stubCourses{}, &fakeActivities{})

	sum := svc.Summary(context.Background(), primitive.NewObjectID())

	assert.Nil(t, sum.Gamification)
	assert.Len(t, sum.Banners, 1)
	require.Len(t, sum.Active, 1)
	assert.Equal(t, "Ativo", sum.Active[0].Title)
	assert.Len(t, sum.Recommended, dashboardRecommended)
	assert.Equal(t, 3, sum.Courses.CompletedLessons)
	assert.Equal(t, 6, sum.Courses.TotalLessons)
	assert.Equal(t, "50%", sum.Courses.PercentLabel)
	require.NotNil(t, sum.Courses.NextModule)
	assert.Equal(t, "Próximo", sum.Courses.NextModule.Title)
	assert.NotNil(t, sum.Activity)
}
