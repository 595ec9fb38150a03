package services

import (
	"context"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotifChallengeDeadline = "challenge_deadline"
	NotifChallengeExpired  = "challenge_expired"
	NotifBadgeAwarded      = "badge_awarded"
	NotifLevelUp           = "level_up"
	NotifMenteeWelcome     = "mentee_welcome"
)

type NotificationStore interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, userID, id primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error
	DeleteNotification(ctx context.Context, userID, id primitive.ObjectID) error
	DeleteExpiredNotifications(ctx context.Context) (int64, error)
}

// Notifier is the part of NotificationService other services depend on.
type Notifier interface {
	CreateNotification(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) error
}

type NotificationService struct {
	repo NotificationStore
}

func NewNotificationService(repo NotificationStore) *NotificationService {
	return &NotificationService{repo: repo}
}

// CreateNotification logs a new notification for a user
func (s *NotificationService) CreateNotification(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) error {
	notif := &models.Notification{
		UserID:   userID,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Read:     false,
		TargetID: targetID,
	}
	return s.repo.CreateNotification(ctx, notif)
}

// GetUserNotifications returns the unexpired notifications of a user
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	notifs, err := s.repo.GetUserNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	if notifs == nil {
		notifs = []models.Notification{}
	}
	return notifs, nil
}

func (s *NotificationService) MarkNotificationAsRead(ctx context.Context, userID, notifID primitive.ObjectID) error {
	return s.repo.MarkAsRead(ctx, userID, notifID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) DeleteNotification(ctx context.Context, userID, notifID primitive.ObjectID) error {
	return s.repo.DeleteNotification(ctx, userID, notifID)
}

// DeleteExpiredNotifications is called by the daily cleanup job.
func (s *NotificationService) DeleteExpiredNotifications(ctx context.Context) error {
	n, err := s.repo.DeleteExpiredNotifications(ctx)
	if err != nil {
		return err
	}
	logger.Log.WithField("deleted", n).Info("Expired notifications cleaned up")
	return nil
}

// notify sends a notification in the background. Failures are only logged.
func notify(n Notifier, userID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) {
	if n == nil {
		return
	}
	go func() {
		if err := n.CreateNotification(context.Background(), userID, notifType, title, message, targetID); err != nil {
			logger.Log.WithError(err).WithField("type", notifType).Warn("Failed to send notification")
		}
	}()
}
