package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/services"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	flagWarningSent  = "warning_sent"
	flagExpiredNoted = "expired_noted"
)

// ProgressScanner is the part of the progress repository the scan needs.
type ProgressScanner interface {
	GetDueForWarning(ctx context.Context, now time.Time, within time.Duration) ([]models.ChallengeProgress, error)
	GetExpiredUnnoted(ctx context.Context, since, now time.Time) ([]models.ChallengeProgress, error)
	MarkFlag(ctx context.Context, id primitive.ObjectID, flag string) error
}

type ChallengeLookup interface {
	GetChallengesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.DailyChallenge, error)
}

// ChallengeDeadlineNotifier warns users about attempts that are about to end
// and tells them when one ran out. Each attempt is reported at most once per kind.
type ChallengeDeadlineNotifier struct {
	Progress      ProgressScanner
	Challenges    ChallengeLookup
	Notifications services.Notifier
	// Within is how far ahead of a deadline the warning goes out.
	Within time.Duration
	// Lookback bounds how old an expiry can be and still be reported. It spans
	// several scan periods so a late or skipped run still catches up.
	Lookback time.Duration
	Now      func() time.Time
}

// NewChallengeDeadlineNotifier creates a new instance of ChallengeDeadlineNotifier
func NewChallengeDeadlineNotifier(progress ProgressScanner, challenges ChallengeLookup, notifier services.Notifier, within time.Duration) *ChallengeDeadlineNotifier {
	if within <= 0 {
		within = 2 * time.Hour
	}
	return &ChallengeDeadlineNotifier{
		Progress:      progress,
		Challenges:    challenges,
		Notifications: notifier,
		Within:        within,
		Lookback:      24 * time.Hour,
		Now:           time.Now,
	}
}

// RunScan sends the deadline warnings and expiry notices that are due.
func (d *ChallengeDeadlineNotifier) RunScan(ctx context.Context) error {
	now := d.Now()

	due, err := d.Progress.GetDueForWarning(ctx, now, d.Within)
	if err != nil {
		return fmt.Errorf("failed to fetch attempts near deadline: %w", err)
	}
	expired, err := d.Progress.GetExpiredUnnoted(ctx, now.Add(-d.Lookback), now)
	if err != nil {
		return fmt.Errorf("failed to fetch expired attempts: %w", err)
	}
	if len(due) == 0 && len(expired) == 0 {
		return nil
	}

	titles := d.titles(ctx, append(append([]models.ChallengeProgress{}, due...), expired...))

	warned := 0
	for _, p := range due {
		left := p.Deadline.Sub(now).Round(time.Minute)
		msg := fmt.Sprintf("Seu desafio \"%s\" termina em %s. Finalize antes do prazo!", titles[p.ChallengeID], formatLeft(left))
		if d.send(ctx, p, services.NotifChallengeDeadline, "Prazo do desafio se aproximando", msg, flagWarningSent) {
			warned++
		}
	}

	noted := 0
	for _, p := range expired {
		msg := fmt.Sprintf("O prazo do desafio \"%s\" terminou. Você pode iniciá-lo novamente.", titles[p.ChallengeID])
		if d.send(ctx, p, services.NotifChallengeExpired, "Desafio expirado", msg, flagExpiredNoted) {
			noted++
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"warned":  warned,
		"expired": noted,
	}).Info("Challenge deadline scan completed")
	return nil
}

func (d *ChallengeDeadlineNotifier) send(ctx context.Context, p models.ChallengeProgress, notifType, title, msg, flag string) bool {
	fields := logrus.Fields{"progress_id": p.ID.Hex(), "type": notifType}
	challengeID := p.ChallengeID
	if err := d.Notifications.CreateNotification(ctx, p.UserID, notifType, title, msg, &challengeID); err != nil {
		logger.Log.WithError(err).WithFields(fields).Warn("Failed to send deadline notification")
		return false
	}
	if err := d.Progress.MarkFlag(ctx, p.ID, flag); err != nil {
		logger.Log.WithError(err).WithFields(fields).Warn("Failed to flag challenge progress")
	}
	return true
}

// titles resolves challenge titles; missing ones fall back to a generic name.
func (d *ChallengeDeadlineNotifier) titles(ctx context.Context, rows []models.ChallengeProgress) map[primitive.ObjectID]string {
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, p := range rows {
		if !seen[p.ChallengeID] {
			seen[p.ChallengeID] = true
			ids = append(ids, p.ChallengeID)
		}
	}

	titles := make(map[primitive.ObjectID]string, len(ids))
	for _, id := range ids {
		titles[id] = "diário"
	}
	challenges, err := d.Challenges.GetChallengesByIDs(ctx, ids)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to load challenge titles")
		return titles
	}
	for _, c := range challenges {
		titles[c.ID] = c.Title
	}
	return titles
}

func formatLeft(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%d min", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%02d", h, m)
}
