package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n8nhub/community_hub/internal/chain"
	"github.com/n8nhub/community_hub/internal/gamification"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/repository"
	"github.com/n8nhub/community_hub/pkg/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeChallenges struct {
	byID map[primitive.ObjectID]models.DailyChallenge
}

func newFakeChallenges(chs ...models.DailyChallenge) *fakeChallenges {
	f := &fakeChallenges{byID: map[primitive.ObjectID]models.DailyChallenge{}}
	for _, c := range chs {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeChallenges) CreateChallenge(ctx context.Context, c *models.DailyChallenge) (*models.DailyChallenge, error) {
	f.byID[c.ID] = *c
	return c, nil
}

func (f *fakeChallenges) GetChallengeByID(ctx context.Context, id primitive.ObjectID) (*models.DailyChallenge, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (f *fakeChallenges) UpdateChallenge(ctx context.Context, c *models.DailyChallenge) error {
	f.byID[c.ID] = *c
	return nil
}

func (f *fakeChallenges) UpdateLink(ctx context.Context, id primitive.ObjectID, orderIndex int, initial bool, predecessor *primitive.ObjectID) error {
	c := f.byID[id]
	c.OrderIndex, c.IsInitialActive, c.PredecessorChallengeID = orderIndex, initial, predecessor
	f.byID[id] = c
	return nil
}

func (f *fakeChallenges) DeleteChallenge(ctx context.Context, id primitive.ObjectID) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeChallenges) GetChallenges(ctx context.Context, track string) ([]models.DailyChallenge, error) {
	var out []models.DailyChallenge
	for _, c := range f.byID {
		if track == "" || c.Track == track {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (f *fakeChallenges) GetChallengesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.DailyChallenge, error) {
	var out []models.DailyChallenge
	for _, id := range ids {
		if c, ok := f.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChallenges) GetTracks(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, c := range f.byID {
		if !seen[c.Track] {
			seen[c.Track] = true
			out = append(out, c.Track)
		}
	}
	return out, nil
}

type fakeProgress struct {
	rows []models.ChallengeProgress
}

func (f *fakeProgress) CreateProgress(ctx context.Context, p *models.ChallengeProgress) (*models.ChallengeProgress, error) {
	p.ID = primitive.NewObjectID()
	f.rows = append(f.rows, *p)
	return p, nil
}

func (f *fakeProgress) GetProgressByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ChallengeProgress, error) {
	var out []models.ChallengeProgress
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeProgress) CompleteProgress(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	for i := range f.rows {
		r := &f.rows[i]
		if r.ID == id && r.CompletedAt == nil && r.Deadline.After(at) {
			r.CompletedAt = &at
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeRecommender struct {
	ids []primitive.ObjectID
}

func (f *fakeRecommender) RecommendedChallengeIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f.ids, nil
}

type challengeFixture struct {
	svc      *ChallengeService
	store    *fakeChallenges
	progress *fakeProgress
	rewarder *fakeRewarder
	acts     *fakeActivities
	clock    time.Time
	user     primitive.ObjectID
	a, b     models.DailyChallenge
}

func newChallengeFixture() *challengeFixture {
	a := models.DailyChallenge{
		ID: primitive.NewObjectID(), Title: "Primeiro webhook", Track: "n8n",
		Difficulty: "iniciante", IsInitialActive: true, XPReward: 40,
	}
	aID := a.ID
	b := models.DailyChallenge{
		ID: primitive.NewObjectID(), Title: "Enviar email", Track: "n8n",
		Difficulty: "iniciante", OrderIndex: 1, PredecessorChallengeID: &aID, IsBonus: true,
	}

	f := &challengeFixture{
		store:    newFakeChallenges(a, b),
		progress: &fakeProgress{},
		rewarder: &fakeRewarder{},
		acts:     &fakeActivities{},
		clock:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		user:     primitive.NewObjectID(),
		a:        a,
		b:        b,
	}
	f.svc = NewChallengeService(f.store, f.progress, f.rewarder, f.acts, &fakeRecommender{ids: []primitive.ObjectID{a.ID, b.ID}}, 24*time.Hour)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func TestTrackStatusesFollowChain(t *testing.T) {
	f := newChallengeFixture()

	tv, err := f.svc.Track(context.Background(), f.user, "n8n")
	require.NoError(t, err)
	require.Len(t, tv.Challenges, 2)

	assert.Equal(t, f.a.ID, tv.Challenges[0].ID)
	assert.Equal(t, chain.StatusAvailable, tv.Challenges[0].Status)
	assert.Equal(t, 1, tv.Challenges[0].Position)
	assert.Equal(t, chain.StatusLocked, tv.Challenges[1].Status)
	assert.Equal(t, "Iniciante", tv.Challenges[0].DifficultyLabel)
	assert.Equal(t, 0, tv.Completed)
}

func TestStartLockedChallenge(t *testing.T) {
	f := newChallengeFixture()

	_, err := f.svc.Start(context.Background(), f.user, f.b.ID)
	assert.ErrorIs(t, err, ErrChallengeLocked)
}

func TestStartAndComplete(t *testing.T) {
	f := newChallengeFixture()
	ctx := context.Background()

	p, err := f.svc.Start(ctx, f.user, f.a.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Add(24*time.Hour), p.Deadline)

	_, err = f.svc.Start(ctx, f.user, f.a.ID)
	assert.ErrorIs(t, err, ErrAlreadyActive)

	f.clock = f.clock.Add(2 * time.Hour)
	res, err := f.svc.Complete(ctx, f.user, f.a.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Progress.CompletedAt)
	assert.Equal(t, int64(40), res.XP.Awarded)
	assert.Nil(t, res.Bonus)
	assert.Equal(t, []gamification.Reason{gamification.ReasonChallengeCompleted}, f.rewarder.reasons())
	assert.Equal(t, 1, f.rewarder.streaks)
	assert.Equal(t, []string{ActivityChallengeStarted, ActivityChallengeCompleted}, f.acts.types)

	_, err = f.svc.Complete(ctx, f.user, f.a.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	_, err = f.svc.Start(ctx, f.user, f.a.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	tv, err := f.svc.Track(ctx, f.user, "n8n")
	require.NoError(t, err)
	assert.Equal(t, chain.StatusCompleted, tv.Challenges[0].Status)
	assert.Equal(t, chain.StatusAvailable, tv.Challenges[1].Status)
	assert.InDelta(t, 50, tv.Percent, 0.001)
}

func TestCompleteBonusChallenge(t *testing.T) {
	f := newChallengeFixture()
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user, f.a.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, f.user, f.a.ID)
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, f.user, f.b.ID)
	require.NoError(t, err)
	res, err := f.svc.Complete(ctx, f.user, f.b.ID)
	require.NoError(t, err)

	assert.Equal(t, gamification.Reward(gamification.ReasonChallengeCompleted), res.XP.Awarded)
	require.NotNil(t, res.Bonus)
	assert.Equal(t, gamification.Reward(gamification.ReasonChallengeBonus), res.Bonus.Awarded)
}

func TestCompleteWithoutAttempt(t *testing.T) {
	f := newChallengeFixture()

	_, err := f.svc.Complete(context.Background(), f.user, f.a.ID)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestExpiredAttemptCanBeRestarted(t *testing.T) {
	f := newChallengeFixture()
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user, f.a.ID)
	require.NoError(t, err)

	f.clock = f.clock.Add(25 * time.Hour)
	_, err = f.svc.Complete(ctx, f.user, f.a.ID)
	assert.ErrorIs(t, err, ErrNotActive)

	tv, err := f.svc.Track(ctx, f.user, "n8n")
	require.NoError(t, err)
	assert.Equal(t, chain.StatusExpired, tv.Challenges[0].Status)

	p, err := f.svc.Start(ctx, f.user, f.a.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Add(24*time.Hour), p.Deadline)

	current, err := f.svc.CurrentAttempt(ctx, f.user, f.a.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, current.ID)
}

func TestChallengeDurationOverride(t *testing.T) {
	f := newChallengeFixture()
	c := f.store.byID[f.a.ID]
	c.DurationHours = 2
	f.store.byID[f.a.ID] = c

	p, err := f.svc.Start(context.Background(), f.user, f.a.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Add(2*time.Hour), p.Deadline)
}

func TestActiveChallengeHasCountdown(t *testing.T) {
	f := newChallengeFixture()
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user, f.a.ID)
	require.NoError(t, err)
	f.clock = f.clock.Add(22*time.Hour + 30*time.Minute)

	tv, err := f.svc.Track(ctx, f.user, "n8n")
	require.NoError(t, err)
	require.NotNil(t, tv.Challenges[0].Countdown)
	assert.Equal(t, "01:30:00", tv.Challenges[0].CountdownLabel)

	progress, err := f.svc.Progress(ctx, f.user)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, chain.StatusActive, progress[0].Status)
	assert.Equal(t, "Primeiro webhook", progress[0].Title)
}

func TestRecommendedSkipsCompleted(t *testing.T) {
	f := newChallengeFixture()
	ctx := context.Background()

	_, err := f.svc.Start(ctx, f.user, f.a.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, f.user, f.a.ID)
	require.NoError(t, err)

	rec, err := f.svc.Recommended(ctx, f.user)
	require.NoError(t, err)
	require.Len(t, rec, 1)
	assert.Equal(t, f.b.ID, rec[0].ID)
	assert.Equal(t, chain.StatusAvailable, rec[0].Status)
}

func TestUpdateLinkRejectsCycle(t *testing.T) {
	f := newChallengeFixture()
	pred := f.b.ID.Hex()

	_, err := f.svc.UpdateLink(context.Background(), f.a.ID, LinkInput{PredecessorID: &pred})

	ve, ok := validation.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "predecessor_challenge_id", ve.Fields[0].Field)
}

func TestUpdateLinkRejectsSelfAndOtherTrack(t *testing.T) {
	f := newChallengeFixture()
	ctx := context.Background()

	self := f.a.ID.Hex()
	_, err := f.svc.UpdateLink(ctx, f.a.ID, LinkInput{PredecessorID: &self})
	_, ok := validation.AsError(err)
	assert.True(t, ok)

	other := models.DailyChallenge{ID: primitive.NewObjectID(), Title: "IA", Track: "ia", Difficulty: "avancado", IsInitialActive: true}
	f.store.byID[other.ID] = other
	otherID := other.ID.Hex()
	_, err = f.svc.UpdateLink(ctx, f.b.ID, LinkInput{OrderIndex: 1, PredecessorID: &otherID})
	_, ok = validation.AsError(err)
	assert.True(t, ok)
}

func TestCreateChallengeValidates(t *testing.T) {
	f := newChallengeFixture()

	_, err := f.svc.CreateChallenge(context.Background(), f.user, &models.DailyChallenge{Title: "Sem trilha", Difficulty: "facil"})
	ve, ok := validation.AsError(err)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(ve.Fields), 2)

	aID := f.a.ID
	created, err := f.svc.CreateChallenge(context.Background(), f.user, &models.DailyChallenge{
		Title: "Terceiro", Track: "n8n", Difficulty: "intermediario", OrderIndex: 2, PredecessorChallengeID: &aID,
	})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, f.user, created.CreatedBy)
	assert.NotNil(t, created.Steps)
}
