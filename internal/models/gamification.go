package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserXP struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	TotalXP   int64              `bson:"total_xp" json:"total_xp"`
	Level     int                `bson:"level" json:"level"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type XPTransaction struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Amount    int64               `bson:"amount" json:"amount"`
	Reason    string              `bson:"reason" json:"reason"`
	SourceID  *primitive.ObjectID `bson:"source_id,omitempty" json:"source_id,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}

type UserStreak struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"user_id" json:"user_id"`
	CurrentStreak    int                `bson:"current_streak" json:"current_streak"`
	LongestStreak    int                `bson:"longest_streak" json:"longest_streak"`
	LastActivityDate string             `bson:"last_activity_date" json:"last_activity_date"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

type Badge struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id" toml:"-"`
	Key           string             `bson:"key" json:"key" toml:"key" validate:"required,max=64"`
	Name          string             `bson:"name" json:"name" toml:"name" validate:"required,max=100"`
	Description   string             `bson:"description" json:"description" toml:"description"`
	Icon          string             `bson:"icon" json:"icon" toml:"icon"`
	CriteriaType  string             `bson:"criteria_type" json:"criteria_type" toml:"criteria_type" validate:"required"`
	CriteriaValue int64              `bson:"criteria_value" json:"criteria_value" toml:"criteria_value" validate:"gte=0"`
	Active        bool               `bson:"active" json:"active" toml:"active"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at" toml:"-"`
}

type UserBadge struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	BadgeID   primitive.ObjectID `bson:"badge_id" json:"badge_id"`
	AwardedAt time.Time          `bson:"awarded_at" json:"awarded_at"`
}
