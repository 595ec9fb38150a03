package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeProgress struct {
	rows []models.ChallengeProgress
}

func (f *fakeProgress) GetDueForWarning(ctx context.Context, now time.Time, within time.Duration) ([]models.ChallengeProgress, error) {
	var out []models.ChallengeProgress
	for _, p := range f.rows {
		if p.CompletedAt == nil && !p.WarningSent && p.Deadline.After(now) && !p.Deadline.After(now.Add(within)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProgress) GetExpiredUnnoted(ctx context.Context, since, now time.Time) ([]models.ChallengeProgress, error) {
	var out []models.ChallengeProgress
	for _, p := range f.rows {
		if p.CompletedAt == nil && !p.ExpiredNoted && p.Deadline.After(since) && !p.Deadline.After(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProgress) MarkFlag(ctx context.Context, id primitive.ObjectID, flag string) error {
	for i := range f.rows {
		if f.rows[i].ID != id {
			continue
		}
		switch flag {
		case flagWarningSent:
			f.rows[i].WarningSent = true
		case flagExpiredNoted:
			f.rows[i].ExpiredNoted = true
		}
	}
	return nil
}

type fakeChallenges struct {
	list []models.DailyChallenge
	err  error
}

func (f fakeChallenges) GetChallengesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.DailyChallenge, error) {
	return f.list, f.err
}

type sentNotification struct {
	userID    primitive.ObjectID
	notifType string
	message   string
}

type recordingNotifier struct {
	sent []sentNotification
	err  error
}

func (r *recordingNotifier) CreateNotification(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentNotification{userID: userID, notifType: notifType, message: message})
	return nil
}

func TestRunScanNotifiesOnce(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	challenge := models.DailyChallenge{ID: primitive.NewObjectID(), Title: "Webhook com Slack"}
	done := now.Add(-time.Hour)

	soon := models.ChallengeProgress{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), ChallengeID: challenge.ID, Deadline: now.Add(90 * time.Minute)}
	later := models.ChallengeProgress{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), ChallengeID: challenge.ID, Deadline: now.Add(5 * time.Hour)}
	expired := models.ChallengeProgress{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), ChallengeID: challenge.ID, Deadline: now.Add(-10 * time.Minute)}
	missed := models.ChallengeProgress{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), ChallengeID: challenge.ID, Deadline: now.Add(-3 * time.Hour)}
	old := models.ChallengeProgress{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), ChallengeID: challenge.ID, Deadline: now.Add(-30 * time.Hour)}
	completed := models.ChallengeProgress{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), ChallengeID: challenge.ID, Deadline: now.Add(30 * time.Minute), CompletedAt: &done}

	progress := &fakeProgress{rows: []models.ChallengeProgress{soon, later, expired, missed, old, completed}}
	notifier := &recordingNotifier{}
	d := NewChallengeDeadlineNotifier(progress, fakeChallenges{list: []models.DailyChallenge{challenge}}, notifier, 2*time.Hour)
	d.Now = func() time.Time { return now }

	require.NoError(t, d.RunScan(context.Background()))
	require.Len(t, notifier.sent, 3)
	assert.Equal(t, soon.UserID, notifier.sent[0].userID)
	assert.Equal(t, services.NotifChallengeDeadline, notifier.sent[0].notifType)
	assert.Contains(t, notifier.sent[0].message, "Webhook com Slack")
	assert.Contains(t, notifier.sent[0].message, "1h30")
	assert.Equal(t, expired.UserID, notifier.sent[1].userID)
	assert.Equal(t, services.NotifChallengeExpired, notifier.sent[1].notifType)
	assert.Equal(t, missed.UserID, notifier.sent[2].userID)

	require.NoError(t, d.RunScan(context.Background()))
	assert.Len(t, notifier.sent, 3)
}

func TestRunScanCatchesUpAfterSkippedRuns(t *testing.T) {
	start := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	p := models.ChallengeProgress{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), ChallengeID: primitive.NewObjectID(), Deadline: start.Add(30 * time.Minute), WarningSent: true}
	progress := &fakeProgress{rows: []models.ChallengeProgress{p}}
	notifier := &recordingNotifier{}
	d := NewChallengeDeadlineNotifier(progress, fakeChallenges{}, notifier, 0)

	d.Now = func() time.Time { return start }
	require.NoError(t, d.RunScan(context.Background()))
	assert.Empty(t, notifier.sent)

	// the next run lands hours late, after a restart
	d.Now = func() time.Time { return start.Add(5*time.Hour + 7*time.Minute) }
	require.NoError(t, d.RunScan(context.Background()))
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, services.NotifChallengeExpired, notifier.sent[0].notifType)
	assert.True(t, progress.rows[0].ExpiredNoted)
}

func TestRunScanKeepsFlagOnFailedSend(t *testing.T) {
	now := time.Now()
	p := models.ChallengeProgress{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), ChallengeID: primitive.NewObjectID(), Deadline: now.Add(time.Hour)}
	progress := &fakeProgress{rows: []models.ChallengeProgress{p}}
	notifier := &recordingNotifier{err: errors.New("db down")}
	d := NewChallengeDeadlineNotifier(progress, fakeChallenges{err: errors.New("db down")}, notifier, 0)
	d.Now = func() time.Time { return now }

	require.NoError(t, d.RunScan(context.Background()))
	assert.False(t, progress.rows[0].WarningSent)
}

func TestFormatLeft(t *testing.T) {
	assert.Equal(t, "45 min", formatLeft(45*time.Minute))
	assert.Equal(t, "2h", formatLeft(2*time.Hour))
	assert.Equal(t, "1h05", formatLeft(65*time.Minute))
}
