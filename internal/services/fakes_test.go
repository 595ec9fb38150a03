package services

import (
	"context"
	"sync"

	"github.com/n8nhub/community_hub/internal/gamification"
	"github.com/n8nhub/community_hub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sentNotification struct {
	UserID primitive.ObjectID
	Type   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) CreateNotification(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Type: notifType})
	return nil
}

func (n *fakeNotifier) count(notifType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.Type == notifType {
			c++
		}
	}
	return c
}

type fakeActivities struct {
	mu    sync.Mutex
	types []string
}

func (a *fakeActivities) LogActivity(ctx context.Context, userID primitive.ObjectID, actionType string, targetID primitive.ObjectID, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.types = append(a.types, actionType)
	return nil
}

func (a *fakeActivities) GetRecentActivities(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Activity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []models.Activity{}
	for _, t := range a.types {
		out = append(out, models.Activity{UserID: userID, Type: t})
	}
	return out, nil
}

type rewardCall struct {
	Reason gamification.Reason
	Amount int64
}

type fakeRewarder struct {
	awards  []rewardCall
	streaks int
}

func (r *fakeRewarder) AwardXP(ctx context.Context, userID primitive.ObjectID, reason gamification.Reason, amount int64, sourceID *primitive.ObjectID) (*XPResult, error) {
	if amount <= 0 {
		amount = gamification.Reward(reason)
	}
	r.awards = append(r.awards, rewardCall{Reason: reason, Amount: amount})
	return &XPResult{Awarded: amount, Reason: string(reason)}, nil
}

func (r *fakeRewarder) RecordActivity(ctx context.Context, userID primitive.ObjectID) (*models.UserStreak, error) {
	r.streaks++
	return &models.UserStreak{UserID: userID, CurrentStreak: r.streaks}, nil
}

func (r *fakeRewarder) EvaluateBadges(ctx context.Context, userID primitive.ObjectID) ([]models.Badge, error) {
	return nil, nil
}

func (r *fakeRewarder) reasons() []gamification.Reason {
	out := make([]gamification.Reason, len(r.awards))
	for i, a := range r.awards {
		out[i] = a.Reason
	}
	return out
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
