package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DailyChallenge is authored by admins and mentors. Its chain fields place it
// inside its track.
type DailyChallenge struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title            string             `bson:"title" json:"title" validate:"required,max=200"`
	Objective        string             `bson:"objective" json:"objective"`
	Track            string             `bson:"track" json:"track" validate:"required"`
	Difficulty       string             `bson:"difficulty" json:"difficulty" validate:"required,oneof=iniciante intermediario avancado"`
	EstimatedMinutes int                `bson:"estimated_minutes" json:"estimated_minutes" validate:"gte=0"`
	// DurationHours is the time box of one attempt; 0 uses the server default.
	DurationHours int      `bson:"duration_hours,omitempty" json:"duration_hours,omitempty" validate:"gte=0,lte=720"`
	Steps         []string `bson:"steps" json:"steps"`
	Checklist     []string `bson:"checklist" json:"checklist"`
	Deliverable   string   `bson:"deliverable" json:"deliverable"`
	IsBonus       bool     `bson:"is_bonus" json:"is_bonus"`
	XPReward      int64    `bson:"xp_reward,omitempty" json:"xp_reward,omitempty" validate:"gte=0"`

	OrderIndex             int                 `bson:"order_index" json:"order_index"`
	IsInitialActive        bool                `bson:"is_initial_active" json:"is_initial_active"`
	PredecessorChallengeID *primitive.ObjectID `bson:"predecessor_challenge_id" json:"predecessor_challenge_id"`

	CreatedBy primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// ChallengeProgress is one attempt of a user at a challenge. Expiry is
// derived from Deadline and never stored.
type ChallengeProgress struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	ChallengeID  primitive.ObjectID `bson:"challenge_id" json:"challenge_id"`
	StartedAt    time.Time          `bson:"started_at" json:"started_at"`
	Deadline     time.Time          `bson:"deadline" json:"deadline"`
	CompletedAt  *time.Time         `bson:"completed_at" json:"completed_at"`
	WarningSent  bool               `bson:"warning_sent,omitempty" json:"-"`
	ExpiredNoted bool               `bson:"expired_noted,omitempty" json:"-"`
}
