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

type GamificationStore interface {
	AddXP(ctx context.Context, userID primitive.ObjectID, amount int64) (int64, error)
	SetLevel(ctx context.Context, userID primitive.ObjectID, level int) error
	GetUserXP(ctx context.Context, userID primitive.ObjectID) (*models.UserXP, error)
	GetLeaderboard(ctx context.Context, limit int64) ([]models.UserXP, error)
	CreateTransaction(ctx context.Context, tx *models.XPTransaction) error
	GetTransactions(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.XPTransaction, error)
	GetStreak(ctx context.Context, userID primitive.ObjectID) (*models.UserStreak, error)
	SaveStreak(ctx context.Context, s *models.UserStreak) error
	ResetStaleStreaks(ctx context.Context, date string) (int64, error)
	CreateBadge(ctx context.Context, b *models.Badge) (*models.Badge, error)
	UpdateBadge(ctx context.Context, b *models.Badge) error
	DeleteBadge(ctx context.Context, id primitive.ObjectID) error
	GetBadges(ctx context.Context, activeOnly bool) ([]models.Badge, error)
	AwardBadge(ctx context.Context, userID, badgeID primitive.ObjectID) (bool, error)
	GetUserBadges(ctx context.Context, userID primitive.ObjectID) ([]models.UserBadge, error)
}

// LessonCounter counts completed lessons.
type LessonCounter interface {
	CountCompletedLessons(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// ChallengeCounter counts completed challenge attempts.
type ChallengeCounter interface {
	CountCompleted(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// UserLookup resolves public profiles.
type UserLookup interface {
	PublicUsers(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PublicUser, error)
}

// Rewarder is the part of GamificationService the course and challenge
// services depend on.
type Rewarder interface {
	AwardXP(ctx context.Context, userID primitive.ObjectID, reason gamification.Reason, amount int64, sourceID *primitive.ObjectID) (*XPResult, error)
	RecordActivity(ctx context.Context, userID primitive.ObjectID) (*models.UserStreak, error)
	EvaluateBadges(ctx context.Context, userID primitive.ObjectID) ([]models.Badge, error)
}

// XPResult describes one XP award.
type XPResult struct {
	Awarded   int64  `json:"awarded"`
	Reason    string `json:"reason"`
	TotalXP   int64  `json:"total_xp"`
	Level     int    `json:"level"`
	LeveledUp bool   `json:"leveled_up"`
}

type EarnedBadge struct {
	models.Badge
	AwardedAt time.Time `json:"awarded_at"`
}

type GamificationSummary struct {
	Progress gamification.LevelProgress `json:"progress"`
	XPLabel  string                     `json:"xp_label"`
	Streak   gamification.Streak        `json:"streak"`
	Badges   []EarnedBadge              `json:"badges"`
	Recent   []models.XPTransaction     `json:"recent_transactions"`
}

type LeaderboardEntry struct {
	Rank    int               `json:"rank"`
	User    models.PublicUser `json:"user"`
	TotalXP int64             `json:"total_xp"`
	Level   int               `json:"level"`
	Title   string            `json:"title"`
}

type GamificationService struct {
	repo       GamificationStore
	lessons    LessonCounter
	challenges ChallengeCounter
	users      UserLookup
	notifier   Notifier
	now        func() time.Time
	// loc decides where a streak day starts and ends.
	loc        *time.Location
}

func NewGamificationService(repo GamificationStore, lessons LessonCounter, challenges ChallengeCounter, users UserLookup, notifier Notifier) *GamificationService {
	return &GamificationService{
		repo:       repo,
		lessons:    lessons,
		challenges: challenges,
		users:      users,
		notifier:   notifier,
		now:        time.Now,
		loc:        time.UTC,
	}
}

// SetDayLocation sets the time zone whose midnight starts a new streak day.
func (s *GamificationService) SetDayLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

func (s *GamificationService) today() time.Time {
	return s.now().In(s.loc)
}

// AwardXP adds XP to a user. A non-positive amount uses the default reward of
// reason; when that is zero too nothing is recorded and nil is returned.
func (s *GamificationService) AwardXP(ctx context.Context, userID primitive.ObjectID, reason gamification.Reason, amount int64, sourceID *primitive.ObjectID) (*XPResult, error) {
	if amount <= 0 {
		amount = gamification.Reward(reason)
	}
	if amount <= 0 {
		return nil, nil
	}

	total, err := s.repo.AddXP(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	tx := &models.XPTransaction{
		UserID:    userID,
		Amount:    amount,
		Reason:    string(reason),
		SourceID:  sourceID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Warn("Failed to record xp transaction")
	}

	before := gamification.LevelFor(total - amount)
	after := gamification.LevelFor(total)
	res := &XPResult{
		Awarded:   amount,
		Reason:    string(reason),
		TotalXP:   total,
		Level:     after.Number,
		LeveledUp: after.Number > before.Number,
	}
	if err := s.repo.SetLevel(ctx, userID, after.Number); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Warn("Failed to store level")
	}
	if res.LeveledUp {
		notify(s.notifier, userID, NotifLevelUp, "Você subiu de nível!",
			fmt.Sprintf("Parabéns! Agora você é nível %d: %s.", after.Number, after.Title), nil)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":  userID.Hex(),
		"reason":   reason,
		"amount":   amount,
		"total_xp": total,
	}).Info("XP awarded")
	return res, nil
}

// RecordActivity applies today's activity to the user's streak. The first
// activity of a day that extends a streak earns the streak XP.
func (s *GamificationService) RecordActivity(ctx context.Context, userID primitive.ObjectID) (*models.UserStreak, error) {
	row, err := s.repo.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, changed := gamification.NextStreak(streakOf(row), s.today())
	if !changed {
		return row, nil
	}
	row.CurrentStreak = next.Current
	row.LongestStreak = next.Longest
	row.LastActivityDate = next.LastActivity
	if err := s.repo.SaveStreak(ctx, row); err != nil {
		return nil, err
	}

	if next.Current > 1 {
		if _, err := s.AwardXP(ctx, userID, gamification.ReasonStreakDay, 0, nil); err != nil {
			logger.Log.WithError(err).Warn("Failed to award streak XP")
		}
	}
	return row, nil
}

func streakOf(row *models.UserStreak) gamification.Streak {
	return gamification.Streak{
		Current:      row.CurrentStreak,
		Longest:      row.LongestStreak,
		LastActivity: row.LastActivityDate,
	}
}

func (s *GamificationService) stats(ctx context.Context, userID primitive.ObjectID) (gamification.Stats, error) {
	var st gamification.Stats

	xp, err := s.repo.GetUserXP(ctx, userID)
	if err != nil {
		return st, err
	}
	streak, err := s.repo.GetStreak(ctx, userID)
	if err != nil {
		return st, err
	}
	st.TotalXP = xp.TotalXP
	st.LongestStreak = streak.LongestStreak

	if s.lessons != nil {
		if st.LessonsCompleted, err = s.lessons.CountCompletedLessons(ctx, userID); err != nil {
			return st, err
		}
	}
	if s.challenges != nil {
		if st.ChallengesCompleted, err = s.challenges.CountCompleted(ctx, userID); err != nil {
			return st, err
		}
	}
	return st, nil
}

// EvaluateBadges awards every active badge whose criteria the user now meets
// and returns the newly awarded ones.
func (s *GamificationService) EvaluateBadges(ctx context.Context, userID primitive.ObjectID) ([]models.Badge, error) {
	badges, err := s.repo.GetBadges(ctx, true)
	if err != nil {
		return nil, err
	}
	owned, err := s.repo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	ownedSet := make(map[string]bool, len(owned))
	for _, ub := range owned {
		ownedSet[ub.BadgeID.Hex()] = true
	}
	rules := make([]gamification.Rule, len(badges))
	byID := make(map[string]models.Badge, len(badges))
	for i, b := range badges {
		rules[i] = gamification.Rule{ID: b.ID.Hex(), CriteriaType: b.CriteriaType, CriteriaValue: b.CriteriaValue}
		byID[b.ID.Hex()] = b
	}

	var awarded []models.Badge
	for _, id := range gamification.Earned(rules, stats, ownedSet) {
		b := byID[id]
		created, err := s.repo.AwardBadge(ctx, userID, b.ID)
		if err != nil {
			return awarded, err
		}
		if !created {
			continue
		}
		awarded = append(awarded, b)
		badgeID := b.ID
		notify(s.notifier, userID, NotifBadgeAwarded, "Nova conquista desbloqueada!",
			fmt.Sprintf("Você ganhou o badge \"%s\".", b.Name), &badgeID)
		logger.Log.WithFields(logrus.Fields{"user_id": userID.Hex(), "badge": b.Key}).Info("Badge awarded")
	}
	return awarded, nil
}

// Summary returns the level progress, streak, badges and recent XP of a user.
func (s *GamificationService) Summary(ctx context.Context, userID primitive.ObjectID) (*GamificationSummary, error) {
	xp, err := s.repo.GetUserXP(ctx, userID)
	if err != nil {
		return nil, err
	}
	streak, err := s.repo.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.UserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.GetTransactions(ctx, userID, 10)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.XPTransaction{}
	}

	st := streakOf(streak)
	if gamification.Broken(st, s.today()) {
		st.Current = 0
	}
	return &GamificationSummary{
		Progress: gamification.Progress(xp.TotalXP),
		XPLabel:  format.XP(xp.TotalXP),
		Streak:   st,
		Badges:   badges,
		Recent:   recent,
	}, nil
}

// UserBadges returns the badges a user owns, newest first.
func (s *GamificationService) UserBadges(ctx context.Context, userID primitive.ObjectID) ([]EarnedBadge, error) {
	owned, err := s.repo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.GetBadges(ctx, false)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Badge, len(all))
	for _, b := range all {
		byID[b.ID] = b
	}

	out := make([]EarnedBadge, 0, len(owned))
	for _, ub := range owned {
		b, ok := byID[ub.BadgeID]
		if !ok {
			continue
		}
		out = append(out, EarnedBadge{Badge: b, AwardedAt: ub.AwardedAt})
	}
	return out, nil
}

// Leaderboard returns the top users by XP.
func (s *GamificationService) Leaderboard(ctx context.Context, limit int64) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := s.repo.GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, len(rows))
	for i, r := range rows {
		ids[i] = r.UserID
	}
	profiles := map[primitive.ObjectID]models.PublicUser{}
	if s.users != nil && len(ids) > 0 {
		if profiles, err = s.users.PublicUsers(ctx, ids); err != nil {
			return nil, err
		}
	}

	out := make([]LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		lvl := gamification.LevelFor(r.TotalXP)
		user, ok := profiles[r.UserID]
		if !ok {
			user = models.PublicUser{ID: r.UserID}
		}
		out = append(out, LeaderboardEntry{
			Rank:    i + 1,
			User:    user,
			TotalXP: r.TotalXP,
			Level:   lvl.Number,
			Title:   lvl.Title,
		})
	}
	return out, nil
}

func (s *GamificationService) ListBadges(ctx context.Context, activeOnly bool) ([]models.Badge, error) {
	badges, err := s.repo.GetBadges(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if badges == nil {
		badges = []models.Badge{}
	}
	return badges, nil
}

func validateBadge(b *models.Badge) error {
	if err := validation.Struct(b); err != nil {
		return err
	}
	if !gamification.ValidCriteria(b.CriteriaType) {
		return validation.NewError("criteria_type", "critério desconhecido")
	}
	return nil
}

func (s *GamificationService) CreateBadge(ctx context.Context, b *models.Badge) (*models.Badge, error) {
	if err := validateBadge(b); err != nil {
		return nil, err
	}
	return s.repo.CreateBadge(ctx, b)
}

func (s *GamificationService) UpdateBadge(ctx context.Context, b *models.Badge) error {
	if err := validateBadge(b); err != nil {
		return err
	}
	return s.repo.UpdateBadge(ctx, b)
}

func (s *GamificationService) DeleteBadge(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.DeleteBadge(ctx, id)
}

// ResetBrokenStreaks zeroes the current streak of every user who was not
// active today or yesterday, in the configured day location.
func (s *GamificationService) ResetBrokenStreaks(ctx context.Context) (int64, error) {
	yesterday := s.today().AddDate(0, 0, -1).Format(gamification.DateLayout)
	n, err := s.repo.ResetStaleStreaks(ctx, yesterday)
	if err != nil {
		return 0, err
	}
	logger.Log.WithField("reset", n).Info("Broken streaks reset")
	return n, nil
}
