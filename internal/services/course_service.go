package services

import (
	"context"
	"fmt"
	"time"

	"github.com/n8nhub/community_hub/internal/format"
	"github.com/n8nhub/community_hub/internal/gamification"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CourseStore interface {
	CreateModule(ctx context.Context, m *models.Module) (*models.Module, error)
	UpdateModule(ctx context.Context, m *models.Module) error
	DeleteModule(ctx context.Context, id primitive.ObjectID) error
	GetModuleByID(ctx context.Context, id primitive.ObjectID) (*models.Module, error)
	GetModules(ctx context.Context, publishedOnly bool) ([]models.Module, error)
	CreateLesson(ctx context.Context, l *models.Lesson) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, l *models.Lesson) error
	DeleteLesson(ctx context.Context, id primitive.ObjectID) error
	GetLessonByID(ctx context.Context, id primitive.ObjectID) (*models.Lesson, error)
	GetLessonsByModules(ctx context.Context, moduleIDs []primitive.ObjectID) ([]models.Lesson, error)
	MarkLessonCompleted(ctx context.Context, p *models.LessonProgress) (bool, error)
	GetLessonProgress(ctx context.Context, userID primitive.ObjectID) ([]models.LessonProgress, error)
}

type LessonView struct {
	models.Lesson
	DurationLabel string `json:"duration_label"`
	Completed     bool   `json:"completed"`
}

type ModuleView struct {
	models.Module
	Lessons        []LessonView `json:"lessons"`
	CompletedCount int          `json:"completed_count"`
	TotalCount     int          `json:"total_count"`
	Percent        float64      `json:"percent"`
	DurationLabel  string       `json:"duration_label"`
}

type LessonCompletion struct {
	AlreadyCompleted bool               `json:"already_completed"`
	XP               *XPResult          `json:"xp,omitempty"`
	ModuleCompleted  bool               `json:"module_completed"`
	ModuleXP         *XPResult          `json:"module_xp,omitempty"`
	Streak           *models.UserStreak `json:"streak,omitempty"`
	Badges           []models.Badge     `json:"badges"`
}

type CourseService struct {
	repo       CourseStore
	rewarder   Rewarder
	activities ActivityLogger
	now        func() time.Time
}

func NewCourseService(repo CourseStore, rewarder Rewarder, activities ActivityLogger) *CourseService {
	return &CourseService{repo: repo, rewarder: rewarder, activities: activities, now: time.Now}
}

// Modules returns the modules with their lessons and the user's progress.
// Drafts are included only for editors.
func (s *CourseService) Modules(ctx context.Context, userID primitive.ObjectID, includeDrafts bool) ([]ModuleView, error) {
	modules, err := s.repo.GetModules(ctx, !includeDrafts)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, userID, modules)
}

func (s *CourseService) Module(ctx context.Context, userID, moduleID primitive.ObjectID, includeDrafts bool) (*ModuleView, error) {
	m, err := s.repo.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if !m.Published && !includeDrafts {
		return nil, ErrNotFound
	}
	views, err := s.views(ctx, userID, []models.Module{*m})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CourseService) views(ctx context.Context, userID primitive.ObjectID, modules []models.Module) ([]ModuleView, error) {
	ids := make([]primitive.ObjectID, len(modules))
	for i, m := range modules {
		ids[i] = m.ID
	}
	lessons, err := s.repo.GetLessonsByModules(ctx, ids)
	if err != nil {
		return nil, err
	}
	done, err := s.completedSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	byModule := make(map[primitive.ObjectID][]models.Lesson, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
	}

	out := make([]ModuleView, 0, len(modules))
	for _, m := range modules {
		mv := ModuleView{Module: m, Lessons: []LessonView{}}
		minutes := 0
		for _, l := range byModule[m.ID] {
			lv := LessonView{Lesson: l, DurationLabel: format.Duration(l.DurationMinutes), Completed: done[l.ID]}
			if lv.Completed {
				mv.CompletedCount++
			}
			minutes += l.DurationMinutes
			mv.Lessons = append(mv.Lessons, lv)
		}
		mv.TotalCount = len(mv.Lessons)
		if mv.TotalCount > 0 {
			mv.Percent = 100 * float64(mv.CompletedCount) / float64(mv.TotalCount)
		}
		mv.DurationLabel = format.Duration(minutes)
		out = append(out, mv)
	}
	return out, nil
}

func (s *CourseService) completedSet(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	rows, err := s.repo.GetLessonProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	done := make(map[primitive.ObjectID]bool, len(rows))
	for _, r := range rows {
		done[r.LessonID] = true
	}
	return done, nil
}

// CompleteLesson marks a lesson as done. Repeating it is a no-op. Finishing
// the last lesson of a module grants the module bonus.
func (s *CourseService) CompleteLesson(ctx context.Context, userID, lessonID primitive.ObjectID) (*LessonCompletion, error) {
	lesson, err := s.GetLesson(ctx, lessonID, false)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.MarkLessonCompleted(ctx, &models.LessonProgress{
		UserID:      userID,
		LessonID:    lessonID,
		ModuleID:    lesson.ModuleID,
		CompletedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	res := &LessonCompletion{AlreadyCompleted: !created, Badges: []models.Badge{}}
	if !created {
		return res, nil
	}

	logActivity(ctx, s.activities, userID, ActivityLessonCompleted, lessonID, fmt.Sprintf("Concluiu a aula \"%s\"", lesson.Title))

	moduleDone, err := s.moduleCompleted(ctx, userID, lesson.ModuleID)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to check module completion")
	}
	res.ModuleCompleted = moduleDone

	if s.rewarder == nil {
		return res, nil
	}
	if res.XP, err = s.rewarder.AwardXP(ctx, userID, gamification.ReasonLessonCompleted, lesson.XPReward, &lessonID); err != nil {
		logger.Log.WithError(err).Warn("Failed to award lesson XP")
	}
	if moduleDone {
		moduleID := lesson.ModuleID
		if res.ModuleXP, err = s.rewarder.AwardXP(ctx, userID, gamification.ReasonModuleCompleted, 0, &moduleID); err != nil {
			logger.Log.WithError(err).Warn("Failed to award module XP")
		}
		logActivity(ctx, s.activities, userID, ActivityModuleCompleted, moduleID, "Concluiu um módulo")
	}
	if res.Streak, err = s.rewarder.RecordActivity(ctx, userID); err != nil {
		logger.Log.WithError(err).Warn("Failed to record streak")
	}
	badges, err := s.rewarder.EvaluateBadges(ctx, userID)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to evaluate badges")
	}
	res.Badges = append(res.Badges, badges...)

	logger.Log.WithFields(logrus.Fields{
		"user_id":   userID.Hex(),
		"lesson_id": lessonID.Hex(),
	}).Info("Lesson completed")
	return res, nil
}

func (s *CourseService) moduleCompleted(ctx context.Context, userID, moduleID primitive.ObjectID) (bool, error) {
	lessons, err := s.repo.GetLessonsByModules(ctx, []primitive.ObjectID{moduleID})
	if err != nil || len(lessons) == 0 {
		return false, err
	}
	done, err := s.completedSet(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, l := range lessons {
		if !done[l.ID] {
			return false, nil
		}
	}
	return true, nil
}

func (s *CourseService) CreateModule(ctx context.Context, m *models.Module) (*models.Module, error) {
	if err := validation.Struct(m); err != nil {
		return nil, err
	}
	return s.repo.CreateModule(ctx, m)
}

func (s *CourseService) UpdateModule(ctx context.Context, m *models.Module) error {
	if err := validation.Struct(m); err != nil {
		return err
	}
	return s.repo.UpdateModule(ctx, m)
}

func (s *CourseService) DeleteModule(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.DeleteModule(ctx, id)
}

func (s *CourseService) CreateLesson(ctx context.Context, l *models.Lesson) (*models.Lesson, error) {
	if err := validation.Struct(l); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetModuleByID(ctx, l.ModuleID); err != nil {
		return nil, err
	}
	return s.repo.CreateLesson(ctx, l)
}

func (s *CourseService) UpdateLesson(ctx context.Context, l *models.Lesson) error {
	if err := validation.Struct(l); err != nil {
		return err
	}
	return s.repo.UpdateLesson(ctx, l)
}

func (s *CourseService) DeleteLesson(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.DeleteLesson(ctx, id)
}

// GetLesson returns a lesson. Lessons of draft modules are visible only to editors.
func (s *CourseService) GetLesson(ctx context.Context, id primitive.ObjectID, includeDrafts bool) (*models.Lesson, error) {
	lesson, err := s.repo.GetLessonByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if includeDrafts {
		return lesson, nil
	}
	m, err := s.repo.GetModuleByID(ctx, lesson.ModuleID)
	if err != nil {
		return nil, err
	}
	if !m.Published {
		return nil, ErrNotFound
	}
	return lesson, nil
}
