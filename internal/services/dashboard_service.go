package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/n8nhub/community_hub/internal/chain"
	"github.com/n8nhub/community_hub/internal/format"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

type DashboardStore interface {
	CreateBanner(ctx context.Context, b *models.DashboardBanner) (*models.DashboardBanner, error)
	UpdateBanner(ctx context.Context, b *models.DashboardBanner) error
	DeleteBanner(ctx context.Context, id primitive.ObjectID) error
	GetBanners(ctx context.Context, activeOnly bool) ([]models.DashboardBanner, error)
	GetSidebar(ctx context.Context) (*models.SidebarSettings, error)
	SaveSidebar(ctx context.Context, s *models.SidebarSettings) error
}

type GamificationReader interface {
	Summary(ctx context.Context, userID primitive.ObjectID) (*GamificationSummary, error)
}

type ChallengeReader interface {
	Progress(ctx context.Context, userID primitive.ObjectID) ([]ProgressView, error)
	Recommended(ctx context.Context, userID primitive.ObjectID) ([]ChallengeView, error)
}

type CourseReader interface {
	Modules(ctx context.Context, userID primitive.ObjectID, includeDrafts bool) ([]ModuleView, error)
}

// DefaultSidebar is used until an admin saves the sidebar, and fills in
// entries missing from the saved settings.
var DefaultSidebar = []models.SidebarItem{
	{Key: "dashboard", Label: "Início", Visible: true, OrderIndex: 0},
	{Key: "courses", Label: "Cursos", Visible: true, OrderIndex: 1},
	{Key: "challenges", Label: "Desafios diários", Visible: true, OrderIndex: 2},
	{Key: "templates", Label: "Templates", Visible: true, OrderIndex: 3},
	{Key: "prompts", Label: "Prompts", Visible: true, OrderIndex: 4},
	{Key: "favorites", Label: "Favoritos", Visible: true, OrderIndex: 5},
	{Key: "notes", Label: "Anotações", Visible: true, OrderIndex: 6},
	{Key: "achievements", Label: "Conquistas", Visible: true, OrderIndex: 7},
	{Key: "mentorship", Label: "Mentoria", Visible: true, OrderIndex: 8},
}

const dashboardRecommended = 3

type CourseOverview struct {
	CompletedLessons int     `json:"completed_lessons"`
	TotalLessons     int     `json:"total_lessons"`
	Percent          float64 `json:"percent"`
	PercentLabel     string  `json:"percent_label"`
	// NextModule is the first published module not yet complete.
	NextModule *ModuleView `json:"next_module,omitempty"`
}

// DashboardSummary is the home screen of a learner. Each section is
// loaded independently and left empty when its source fails.
type DashboardSummary struct {
	Banners      []models.DashboardBanner `json:"banners"`
	Gamification *GamificationSummary     `json:"gamification,omitempty"`
	Courses      CourseOverview           `json:"courses"`
	Active       []ProgressView           `json:"active_challenges"`
	Recommended  []ChallengeView          `json:"recommended_challenges"`
	Activity     []models.Activity        `json:"recent_activity"`
}

type DashboardService struct {
	repo         DashboardStore
	gamification GamificationReader
	challenges   ChallengeReader
	courses      CourseReader
	activities   ActivityReader
	now          func() time.Time
}

func NewDashboardService(repo DashboardStore, gamification GamificationReader, challenges ChallengeReader, courses CourseReader, activities ActivityReader) *DashboardService {
	return &DashboardService{
		repo:         repo,
		gamification: gamification,
		challenges:   challenges,
		courses:      courses,
		activities:   activities,
		now:          time.Now,
	}
}

// Banners returns the banners visible now, by order_index.
func (s *DashboardService) Banners(ctx context.Context) ([]models.DashboardBanner, error) {
	all, err := s.repo.GetBanners(ctx, true)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := []models.DashboardBanner{}
	for i := range all {
		if all[i].Visible(now) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// AllBanners lists every banner for the admin screen.
func (s *DashboardService) AllBanners(ctx context.Context) ([]models.DashboardBanner, error) {
	all, err := s.repo.GetBanners(ctx, false)
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = []models.DashboardBanner{}
	}
	return all, nil
}

func validateBanner(b *models.DashboardBanner) error {
	if err := validation.Struct(b); err != nil {
		return err
	}
	if b.StartsAt != nil && b.EndsAt != nil && !b.EndsAt.After(*b.StartsAt) {
		return validation.NewError("ends_at", "o fim deve ser posterior ao início")
	}
	return nil
}

func (s *DashboardService) CreateBanner(ctx context.Context, b *models.DashboardBanner) (*models.DashboardBanner, error) {
	if err := validateBanner(b); err != nil {
		return nil, err
	}
	return s.repo.CreateBanner(ctx, b)
}

func (s *DashboardService) UpdateBanner(ctx context.Context, b *models.DashboardBanner) error {
	if err := validateBanner(b); err != nil {
		return err
	}
	return s.repo.UpdateBanner(ctx, b)
}

func (s *DashboardService) DeleteBanner(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.DeleteBanner(ctx, id)
}

// Sidebar returns the sidebar items sorted by order_index. Hidden items are
// dropped unless includeHidden is set.
func (s *DashboardService) Sidebar(ctx context.Context, includeHidden bool) ([]models.SidebarItem, error) {
	var saved []models.SidebarItem
	settings, err := s.repo.GetSidebar(ctx)
	switch {
	case err == nil:
		saved = settings.Items
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	items := mergeSidebar(saved)
	if includeHidden {
		return items, nil
	}
	visible := make([]models.SidebarItem, 0, len(items))
	for _, it := range items {
		if it.Visible {
			visible = append(visible, it)
		}
	}
	return visible, nil
}

func mergeSidebar(saved []models.SidebarItem) []models.SidebarItem {
	seen := make(map[string]bool, len(saved))
	items := make([]models.SidebarItem, 0, len(DefaultSidebar))
	for _, it := range saved {
		if !seen[it.Key] {
			seen[it.Key] = true
			items = append(items, it)
		}
	}
	for _, it := range DefaultSidebar {
		if !seen[it.Key] {
			items = append(items, it)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].OrderIndex < items[j].OrderIndex })
	return items
}

// SaveSidebar stores the admin's sidebar layout. Keys must be unique.
func (s *DashboardService) SaveSidebar(ctx context.Context, items []models.SidebarItem) ([]models.SidebarItem, error) {
	settings := &models.SidebarSettings{Items: items}
	if err := validation.Struct(settings); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if seen[it.Key] {
			return nil, validation.NewError("items", "chave duplicada: "+it.Key)
		}
		seen[it.Key] = true
	}
	if err := s.repo.SaveSidebar(ctx, settings); err != nil {
		return nil, err
	}
	return mergeSidebar(items), nil
}

// Summary loads every dashboard section concurrently.
func (s *DashboardService) Summary(ctx context.Context, userID primitive.ObjectID) *DashboardSummary {
	sum := &DashboardSummary{
		Banners:     []models.DashboardBanner{},
		Active:      []ProgressView{},
		Recommended: []ChallengeView{},
		Activity:    []models.Activity{},
	}
	g, gctx := errgroup.WithContext(ctx)

	section := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				logger.Log.WithError(err).WithFields(logrus.Fields{
					"user_id": userID.Hex(),
					"section": name,
				}).Warn("Dashboard section failed")
			}
			return nil
		})
	}

	section("banners", func(ctx context.Context) error {
		banners, err := s.Banners(ctx)
		if err == nil {
			sum.Banners = banners
		}
		return err
	})
	section("gamification", func(ctx context.Context) error {
		gs, err := s.gamification.Summary(ctx, userID)
		if err == nil {
			sum.Gamification = gs
		}
		return err
	})
	section("courses", func(ctx context.Context) error {
		modules, err := s.courses.Modules(ctx, userID, false)
		if err == nil {
			sum.Courses = courseOverview(modules)
		}
		return err
	})
	section("challenges", func(ctx context.Context) error {
		progress, err := s.challenges.Progress(ctx, userID)
		if err != nil {
			return err
		}
		active := []ProgressView{}
		for _, p := range progress {
			if p.Status == chain.StatusActive {
				active = append(active, p)
			}
		}
		sum.Active = active
		return nil
	})
	section("recommended", func(ctx context.Context) error {
		rec, err := s.challenges.Recommended(ctx, userID)
		if err != nil {
			return err
		}
		if len(rec) > dashboardRecommended {
			rec = rec[:dashboardRecommended]
		}
		sum.Recommended = rec
		return nil
	})
	section("activity", func(ctx context.Context) error {
		acts, err := s.activities.GetRecentActivities(ctx, userID, 10)
		if err == nil {
			sum.Activity = acts
		}
		return err
	})

	_ = g.Wait()
	return sum
}

func courseOverview(modules []ModuleView) CourseOverview {
	var o CourseOverview
	for i := range modules {
		m := modules[i]
		o.CompletedLessons += m.CompletedCount
		o.TotalLessons += m.TotalCount
		if o.NextModule == nil && m.TotalCount > 0 && m.CompletedCount < m.TotalCount {
			o.NextModule = &m
		}
	}
	if o.TotalLessons > 0 {
		o.Percent = float64(o.CompletedLessons) * 100 / float64(o.TotalLessons)
	}
	o.PercentLabel = format.Percent(o.Percent)
	return o
}
