package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Activity struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Type      string             `bson:"type" json:"type"`           // e.g. "lesson_completed", "challenge_started"
	TargetID  primitive.ObjectID `bson:"target_id" json:"target_id"` // the ID of the lesson, challenge, etc.
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Message   string             `bson:"message" json:"message"`
	// When is the relative time label, filled on read.
	When string `bson:"-" json:"when,omitempty"`
}

// ActivityFilter selects a page of a user's activity feed, newest first.
type ActivityFilter struct {
	UserID primitive.ObjectID
	Types  []string
	// Before pages backwards from the given instant. Zero starts at the newest.
	Before time.Time
	Limit  int64
}
