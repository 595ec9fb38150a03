package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/n8nhub/community_hub/internal/chain"
	"github.com/n8nhub/community_hub/internal/countdown"
	"github.com/n8nhub/community_hub/internal/format"
	"github.com/n8nhub/community_hub/internal/gamification"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/repository"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChallengeStore interface {
	CreateChallenge(ctx context.Context, c *models.DailyChallenge) (*models.DailyChallenge, error)
	GetChallengeByID(ctx context.Context, id primitive.ObjectID) (*models.DailyChallenge, error)
	UpdateChallenge(ctx context.Context, c *models.DailyChallenge) error
	UpdateLink(ctx context.Context, id primitive.ObjectID, orderIndex int, initial bool, predecessor *primitive.ObjectID) error
	DeleteChallenge(ctx context.Context, id primitive.ObjectID) error
	GetChallenges(ctx context.Context, track string) ([]models.DailyChallenge, error)
	GetChallengesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.DailyChallenge, error)
	GetTracks(ctx context.Context) ([]string, error)
}

type ProgressStore interface {
	CreateProgress(ctx context.Context, p *models.ChallengeProgress) (*models.ChallengeProgress, error)
	GetProgressByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ChallengeProgress, error)
	CompleteProgress(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// Recommender picks challenges for a user from their objectives.
type Recommender interface {
	RecommendedChallengeIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// ChallengeView is a challenge as one user sees it.
type ChallengeView struct {
	models.DailyChallenge
	Status          chain.Status              `json:"status"`
	Position        int                       `json:"position"`
	DifficultyLabel string                    `json:"difficulty_label"`
	EstimatedLabel  string                    `json:"estimated_label"`
	Attempt         *models.ChallengeProgress `json:"attempt,omitempty"`
	Countdown       *countdown.Tick           `json:"countdown,omitempty"`
	CountdownLabel  string                    `json:"countdown_label,omitempty"`
}

type TrackView struct {
	Track      string          `json:"track"`
	Challenges []ChallengeView `json:"challenges"`
	Completed  int             `json:"completed"`
	Total      int             `json:"total"`
	Percent    float64         `json:"percent"`
}

// ProgressView is one attempt with the challenge it belongs to.
type ProgressView struct {
	models.ChallengeProgress
	Title     string          `json:"title"`
	Track     string          `json:"track"`
	Status    chain.Status    `json:"status"`
	Countdown *countdown.Tick `json:"countdown,omitempty"`
}

type CompletionResult struct {
	Progress *models.ChallengeProgress `json:"progress"`
	XP       *XPResult                 `json:"xp,omitempty"`
	Bonus    *XPResult                 `json:"bonus,omitempty"`
	Streak   *models.UserStreak        `json:"streak,omitempty"`
	Badges   []models.Badge            `json:"badges"`
}

// LinkInput positions a challenge inside its track.
type LinkInput struct {
	OrderIndex      int     `json:"order_index"`
	IsInitialActive bool    `json:"is_initial_active"`
	PredecessorID   *string `json:"predecessor_challenge_id"`
}

// ChallengeService runs the daily challenge chains: ordering, unlocking,
// timed attempts and their rewards.
type ChallengeService struct {
	challenges  ChallengeStore
	progress    ProgressStore
	rewarder    Rewarder
	activities  ActivityLogger
	recommender Recommender
	window      time.Duration
	now         func() time.Time
}

func NewChallengeService(challenges ChallengeStore, progress ProgressStore, rewarder Rewarder, activities ActivityLogger, recommender Recommender, window time.Duration) *ChallengeService {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &ChallengeService{
		challenges:  challenges,
		progress:    progress,
		rewarder:    rewarder,
		activities:  activities,
		recommender: recommender,
		window:      window,
		now:         time.Now,
	}
}

func linkOf(c *models.DailyChallenge) chain.Link {
	l := chain.Link{
		ChallengeID:     c.ID.Hex(),
		OrderIndex:      c.OrderIndex,
		IsInitialActive: c.IsInitialActive,
	}
	if c.PredecessorChallengeID != nil {
		pred := c.PredecessorChallengeID.Hex()
		l.PredecessorID = &pred
	}
	return l
}

func linksOf(chs []models.DailyChallenge) []chain.Link {
	links := make([]chain.Link, len(chs))
	for i := range chs {
		links[i] = linkOf(&chs[i])
	}
	return links
}

func attemptsOf(rows []models.ChallengeProgress) []chain.Attempt {
	out := make([]chain.Attempt, len(rows))
	for i, r := range rows {
		out[i] = chain.Attempt{
			ChallengeID: r.ChallengeID.Hex(),
			StartedAt:   r.StartedAt,
			Deadline:    r.Deadline,
			CompletedAt: r.CompletedAt,
		}
	}
	return out
}

// resolve orders the challenges of one track. Cycles are logged, never fatal.
func resolve(track string, chs []models.DailyChallenge) ([]models.DailyChallenge, chain.Result) {
	res := chain.Resolve(linksOf(chs))
	if len(res.Cycles) > 0 {
		logger.Log.WithFields(logrus.Fields{
			"track":  track,
			"cycles": res.Cycles,
		}).Warn("Challenge chain contains predecessor cycles")
	}
	ordered := append([]models.DailyChallenge(nil), chs...)
	chain.SortByOrder(ordered, func(c models.DailyChallenge) string { return c.ID.Hex() }, res.Order)
	return ordered, res
}

// latestAttempt returns the most recently started attempt at a challenge.
func latestAttempt(rows []models.ChallengeProgress, challengeID primitive.ObjectID) *models.ChallengeProgress {
	var latest *models.ChallengeProgress
	for i := range rows {
		r := &rows[i]
		if r.ChallengeID != challengeID {
			continue
		}
		if latest == nil || r.StartedAt.After(latest.StartedAt) {
			latest = r
		}
	}
	return latest
}

func (s *ChallengeService) durationOf(c *models.DailyChallenge) time.Duration {
	if c.DurationHours > 0 {
		return time.Duration(c.DurationHours) * time.Hour
	}
	return s.window
}

func (s *ChallengeService) viewOf(c models.DailyChallenge, pos int, st chain.Status, rows []models.ChallengeProgress, now time.Time) ChallengeView {
	v := ChallengeView{
		DailyChallenge:  c,
		Status:          st,
		Position:        pos,
		DifficultyLabel: format.DifficultyLabel(c.Difficulty),
		EstimatedLabel:  format.Duration(c.EstimatedMinutes),
		Attempt:         latestAttempt(rows, c.ID),
	}
	if st == chain.StatusActive && v.Attempt != nil {
		tick := countdown.Frame(v.Attempt.StartedAt, v.Attempt.Deadline, now)
		v.Countdown = &tick
		v.CountdownLabel = format.Countdown(tick.Countdown)
	}
	return v
}

// Tracks returns the track names, sorted.
func (s *ChallengeService) Tracks(ctx context.Context) ([]string, error) {
	tracks, err := s.challenges.GetTracks(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(tracks)
	return tracks, nil
}

// Track returns the challenges of a track in chain order with the user's
// status for each.
func (s *ChallengeService) Track(ctx context.Context, userID primitive.ObjectID, track string) (*TrackView, error) {
	chs, err := s.challenges.GetChallenges(ctx, track)
	if err != nil {
		return nil, err
	}
	rows, err := s.progress.GetProgressByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ordered, _ := resolve(track, chs)
	statuses := chain.Statuses(linksOf(ordered), attemptsOf(rows), now)

	tv := &TrackView{Track: track, Challenges: make([]ChallengeView, 0, len(ordered)), Total: len(ordered)}
	for i, c := range ordered {
		st := statuses[c.ID.Hex()]
		if st == chain.StatusCompleted {
			tv.Completed++
		}
		tv.Challenges = append(tv.Challenges, s.viewOf(c, i+1, st, rows, now))
	}
	if tv.Total > 0 {
		tv.Percent = 100 * float64(tv.Completed) / float64(tv.Total)
	}
	return tv, nil
}

func (s *ChallengeService) statusOf(ctx context.Context, c *models.DailyChallenge, rows []models.ChallengeProgress, now time.Time) (chain.Status, error) {
	chs, err := s.challenges.GetChallenges(ctx, c.Track)
	if err != nil {
		return "", err
	}
	return chain.Statuses(linksOf(chs), attemptsOf(rows), now)[c.ID.Hex()], nil
}

// Start opens a timed attempt. The challenge must be available or expired.
func (s *ChallengeService) Start(ctx context.Context, userID, challengeID primitive.ObjectID) (*models.ChallengeProgress, error) {
	c, err := s.challenges.GetChallengeByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	rows, err := s.progress.GetProgressByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	st, err := s.statusOf(ctx, c, rows, now)
	if err != nil {
		return nil, err
	}
	switch st {
	case chain.StatusActive:
		return nil, ErrAlreadyActive
	case chain.StatusCompleted:
		return nil, ErrAlreadyCompleted
	case chain.StatusLocked:
		return nil, ErrChallengeLocked
	}

	p, err := s.progress.CreateProgress(ctx, &models.ChallengeProgress{
		UserID:      userID,
		ChallengeID: challengeID,
		StartedAt:   now,
		Deadline:    now.Add(s.durationOf(c)),
	})
	if err != nil {
		return nil, err
	}

	logActivity(ctx, s.activities, userID, ActivityChallengeStarted, challengeID, fmt.Sprintf("Iniciou o desafio \"%s\"", c.Title))
	return p, nil
}

// Complete closes the running attempt and grants the rewards.
func (s *ChallengeService) Complete(ctx context.Context, userID, challengeID primitive.ObjectID) (*CompletionResult, error) {
	c, err := s.challenges.GetChallengeByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	rows, err := s.progress.GetProgressByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var active *models.ChallengeProgress
	for i, a := range attemptsOf(rows) {
		if rows[i].ChallengeID != challengeID {
			continue
		}
		if a.CompletedAt != nil {
			return nil, ErrAlreadyCompleted
		}
		if a.Active(now) {
			active = &rows[i]
		}
	}
	if active == nil {
		return nil, ErrNotActive
	}

	if err := s.progress.CompleteProgress(ctx, active.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotActive
		}
		return nil, err
	}
	active.CompletedAt = &now

	res := &CompletionResult{Progress: active, Badges: []models.Badge{}}
	if s.rewarder != nil {
		if res.XP, err = s.rewarder.AwardXP(ctx, userID, gamification.ReasonChallengeCompleted, c.XPReward, &c.ID); err != nil {
			logger.Log.WithError(err).Warn("Failed to award challenge XP")
		}
		if c.IsBonus {
			if res.Bonus, err = s.rewarder.AwardXP(ctx, userID, gamification.ReasonChallengeBonus, 0, &c.ID); err != nil {
				logger.Log.WithError(err).Warn("Failed to award bonus XP")
			}
		}
		if res.Streak, err = s.rewarder.RecordActivity(ctx, userID); err != nil {
			logger.Log.WithError(err).Warn("Failed to record streak")
		}
		badges, err := s.rewarder.EvaluateBadges(ctx, userID)
		if err != nil {
			logger.Log.WithError(err).Warn("Failed to evaluate badges")
		}
		res.Badges = append(res.Badges, badges...)
	}

	logActivity(ctx, s.activities, userID, ActivityChallengeCompleted, challengeID, fmt.Sprintf("Concluiu o desafio \"%s\"", c.Title))
	logger.Log.WithFields(logrus.Fields{
		"user_id":      userID.Hex(),
		"challenge_id": challengeID.Hex(),
	}).Info("Challenge completed")
	return res, nil
}

// CurrentAttempt returns the latest unfinished attempt at a challenge, which
// may already be past its deadline.
func (s *ChallengeService) CurrentAttempt(ctx context.Context, userID, challengeID primitive.ObjectID) (*models.ChallengeProgress, error) {
	rows, err := s.progress.GetProgressByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var current *models.ChallengeProgress
	for i := range rows {
		r := &rows[i]
		if r.ChallengeID != challengeID || r.CompletedAt != nil {
			continue
		}
		if current == nil || r.StartedAt.After(current.StartedAt) {
			current = r
		}
	}
	if current == nil {
		return nil, ErrNotActive
	}
	return current, nil
}

// Progress returns all attempts of a user sorted by chain order, tracks in
// name order.
func (s *ChallengeService) Progress(ctx context.Context, userID primitive.ObjectID) ([]ProgressView, error) {
	rows, err := s.progress.GetProgressByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []ProgressView{}, nil
	}
	all, err := s.challenges.GetChallenges(ctx, "")
	if err != nil {
		return nil, err
	}

	byTrack := map[string][]models.DailyChallenge{}
	byID := make(map[primitive.ObjectID]models.DailyChallenge, len(all))
	for _, c := range all {
		byTrack[c.Track] = append(byTrack[c.Track], c)
		byID[c.ID] = c
	}
	tracks := make([]string, 0, len(byTrack))
	for t := range byTrack {
		tracks = append(tracks, t)
	}
	sort.Strings(tracks)

	var order []string
	for _, t := range tracks {
		_, res := resolve(t, byTrack[t])
		order = append(order, res.Order...)
	}

	sorted := append([]models.ChallengeProgress(nil), rows...)
	chain.SortByOrder(sorted, func(p models.ChallengeProgress) string { return p.ChallengeID.Hex() }, order)

	now := s.now()
	out := make([]ProgressView, 0, len(sorted))
	for _, p := range sorted {
		st, _ := chain.AttemptStatus(attemptsOf([]models.ChallengeProgress{p}), now)
		v := ProgressView{ChallengeProgress: p, Status: st}
		if c, ok := byID[p.ChallengeID]; ok {
			v.Title, v.Track = c.Title, c.Track
		}
		if st == chain.StatusActive {
			tick := countdown.Frame(p.StartedAt, p.Deadline, now)
			v.Countdown = &tick
		}
		out = append(out, v)
	}
	return out, nil
}

// Recommended returns the not yet completed challenges linked to the user's
// objectives, by track and chain position.
func (s *ChallengeService) Recommended(ctx context.Context, userID primitive.ObjectID) ([]ChallengeView, error) {
	if s.recommender == nil {
		return []ChallengeView{}, nil
	}
	ids, err := s.recommender.RecommendedChallengeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	recommended, err := s.challenges.GetChallengesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	wanted := make(map[primitive.ObjectID]bool, len(recommended))
	var tracks []string
	seenTrack := map[string]bool{}
	for _, c := range recommended {
		wanted[c.ID] = true
		if !seenTrack[c.Track] {
			seenTrack[c.Track] = true
			tracks = append(tracks, c.Track)
		}
	}
	sort.Strings(tracks)

	rows, err := s.progress.GetProgressByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := []ChallengeView{}
	for _, t := range tracks {
		chs, err := s.challenges.GetChallenges(ctx, t)
		if err != nil {
			return nil, err
		}
		ordered, _ := resolve(t, chs)
		statuses := chain.Statuses(linksOf(ordered), attemptsOf(rows), now)
		for i, c := range ordered {
			st := statuses[c.ID.Hex()]
			if !wanted[c.ID] || st == chain.StatusCompleted {
				continue
			}
			out = append(out, s.viewOf(c, i+1, st, rows, now))
		}
	}
	return out, nil
}

// ListChallenges returns the challenges of a track in chain order.
func (s *ChallengeService) ListChallenges(ctx context.Context, track string) ([]models.DailyChallenge, error) {
	chs, err := s.challenges.GetChallenges(ctx, track)
	if err != nil {
		return nil, err
	}
	ordered, _ := resolve(track, chs)
	if ordered == nil {
		ordered = []models.DailyChallenge{}
	}
	return ordered, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, id primitive.ObjectID) (*models.DailyChallenge, error) {
	return s.challenges.GetChallengeByID(ctx, id)
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, actorID primitive.ObjectID, c *models.DailyChallenge) (*models.DailyChallenge, error) {
	if err := validation.Struct(c); err != nil {
		return nil, err
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if err := s.validateLink(ctx, c); err != nil {
		return nil, err
	}
	c.CreatedBy = actorID
	if c.Steps == nil {
		c.Steps = []string{}
	}
	if c.Checklist == nil {
		c.Checklist = []string{}
	}
	return s.challenges.CreateChallenge(ctx, c)
}

// UpdateChallenge updates content fields. The track may only change when the
// challenge has no predecessor.
func (s *ChallengeService) UpdateChallenge(ctx context.Context, c *models.DailyChallenge) error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	current, err := s.challenges.GetChallengeByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if current.Track != c.Track && current.PredecessorChallengeID != nil {
		return validation.NewError("track", "remova o desafio anterior antes de mudar a trilha")
	}
	return s.challenges.UpdateChallenge(ctx, c)
}

// UpdateLink moves a challenge inside its track.
func (s *ChallengeService) UpdateLink(ctx context.Context, id primitive.ObjectID, in LinkInput) (*models.DailyChallenge, error) {
	c, err := s.challenges.GetChallengeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.OrderIndex = in.OrderIndex
	c.IsInitialActive = in.IsInitialActive
	c.PredecessorChallengeID = nil
	if in.PredecessorID != nil && *in.PredecessorID != "" {
		pred, err := ParseID(*in.PredecessorID)
		if err != nil {
			return nil, validation.NewError("predecessor_challenge_id", "identificador inválido")
		}
		c.PredecessorChallengeID = &pred
	}
	if err := s.validateLink(ctx, c); err != nil {
		return nil, err
	}
	if err := s.challenges.UpdateLink(ctx, id, c.OrderIndex, c.IsInitialActive, c.PredecessorChallengeID); err != nil {
		return nil, err
	}
	return c, nil
}

// validateLink rejects predecessors that are missing, in another track, the
// challenge itself, or that would close a cycle.
func (s *ChallengeService) validateLink(ctx context.Context, c *models.DailyChallenge) error {
	if c.PredecessorChallengeID == nil {
		return nil
	}
	const field = "predecessor_challenge_id"
	if *c.PredecessorChallengeID == c.ID {
		return validation.NewError(field, "um desafio não pode depender de si mesmo")
	}
	pred, err := s.challenges.GetChallengeByID(ctx, *c.PredecessorChallengeID)
	if errors.Is(err, repository.ErrNotFound) {
		return validation.NewError(field, "desafio anterior não encontrado")
	}
	if err != nil {
		return err
	}
	if pred.Track != c.Track {
		return validation.NewError(field, "o desafio anterior deve estar na mesma trilha")
	}

	siblings, err := s.challenges.GetChallenges(ctx, c.Track)
	if err != nil {
		return err
	}
	links := []chain.Link{linkOf(c)}
	for i := range siblings {
		if siblings[i].ID != c.ID {
			links = append(links, linkOf(&siblings[i]))
		}
	}
	if res := chain.Resolve(links); len(res.Cycles) > 0 {
		return validation.NewError(field, "essa ligação cria um ciclo na trilha")
	}
	return nil
}

func (s *ChallengeService) DeleteChallenge(ctx context.Context, id primitive.ObjectID) error {
	return s.challenges.DeleteChallenge(ctx, id)
}
