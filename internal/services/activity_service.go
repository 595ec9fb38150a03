package services

import (
	"context"
	"time"

	"github.com/n8nhub/community_hub/internal/format"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity types.
const (
	ActivityLessonCompleted    = "lesson_completed"
	ActivityModuleCompleted    = "module_completed"
	ActivityChallengeStarted   = "challenge_started"
	ActivityChallengeCompleted = "challenge_completed"
	ActivityBadgeAwarded       = "badge_awarded"
)

// DefaultActivityRetention is how long feed entries are kept when no
// retention is configured.
const DefaultActivityRetention = 180 * 24 * time.Hour

var activityTypes = map[string]bool{
	ActivityLessonCompleted:    true,
	ActivityModuleCompleted:    true,
	ActivityChallengeStarted:   true,
	ActivityChallengeCompleted: true,
	ActivityBadgeAwarded:       true,
}

type ActivityStore interface {
	InsertActivity(ctx context.Context, a *models.Activity) (*models.Activity, error)
	FindActivities(ctx context.Context, f models.ActivityFilter) ([]models.Activity, error)
	DeleteActivitiesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ActivityLogger is the part of ActivityService other services depend on.
type ActivityLogger interface {
	LogActivity(ctx context.Context, userID primitive.ObjectID, actionType string, targetID primitive.ObjectID, message string) error
}

type ActivityService struct {
	repo      ActivityStore
	retention time.Duration
	now       func() time.Time
}

func NewActivityService(repo ActivityStore, retention time.Duration) *ActivityService {
	if retention <= 0 {
		retention = DefaultActivityRetention
	}
	return &ActivityService{repo: repo, retention: retention, now: time.Now}
}

// LogActivity logs a user activity
func (s *ActivityService) LogActivity(
	ctx context.Context,
	userID primitive.ObjectID,
	actionType string,
	targetID primitive.ObjectID,
	message string,
) error {
	activity := &models.Activity{
		UserID:    userID,
		Type:      actionType,
		TargetID:  targetID,
		Message:   message,
		Timestamp: s.now().UTC(),
	}

	if _, err := s.repo.InsertActivity(ctx, activity); err != nil {
		logger.Log.WithError(err).Error("Failed to log activity in service")
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":     userID.Hex(),
		"action_type": actionType,
	}).Debug("Activity logged")
	return nil
}

// GetRecentActivities returns the newest actions performed by a user.
func (s *ActivityService) GetRecentActivities(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Activity, error) {
	return s.Feed(ctx, models.ActivityFilter{UserID: userID, Limit: limit})
}

// Feed returns one page of a user's activities, optionally restricted to some
// types. Pass the timestamp of the last entry as Before to get the next page.
func (s *ActivityService) Feed(ctx context.Context, f models.ActivityFilter) ([]models.Activity, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	for _, t := range f.Types {
		if !activityTypes[t] {
			return nil, validation.NewError("type", "tipo de atividade desconhecido")
		}
	}

	activities, err := s.repo.FindActivities(ctx, f)
	if err != nil {
		return nil, err
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	now := s.now()
	for i := range activities {
		activities[i].When = format.RelativeTime(activities[i].Timestamp, now)
	}
	return activities, nil
}

// PruneActivities deletes entries older than the retention period.
func (s *ActivityService) PruneActivities(ctx context.Context) (int64, error) {
	return s.repo.DeleteActivitiesBefore(ctx, s.now().Add(-s.retention))
}

func logActivity(ctx context.Context, l ActivityLogger, userID primitive.ObjectID, actionType string, targetID primitive.ObjectID, message string) {
	if l == nil {
		return
	}
	if err := l.LogActivity(ctx, userID, actionType, targetID, message); err != nil {
		logger.Log.WithError(err).WithField("action_type", actionType).Warn("Failed to record activity")
	}
}
