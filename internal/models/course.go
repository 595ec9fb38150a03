package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Module struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title" validate:"required,max=200"`
	Description string             `bson:"description" json:"description"`
	CoverURL    string             `bson:"cover_url,omitempty" json:"cover_url,omitempty" validate:"omitempty,url"`
	OrderIndex  int                `bson:"order_index" json:"order_index"`
	Published   bool               `bson:"published" json:"published"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

type Lesson struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ModuleID        primitive.ObjectID `bson:"module_id" json:"module_id"`
	Title           string             `bson:"title" json:"title" validate:"required,max=200"`
	Content         string             `bson:"content" json:"content"`
	VideoURL        string             `bson:"video_url,omitempty" json:"video_url,omitempty" validate:"omitempty,url"`
	DurationMinutes int                `bson:"duration_minutes" json:"duration_minutes" validate:"gte=0"`
	OrderIndex      int                `bson:"order_index" json:"order_index"`
	XPReward        int64              `bson:"xp_reward,omitempty" json:"xp_reward,omitempty" validate:"gte=0"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

type LessonProgress struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	LessonID    primitive.ObjectID `bson:"lesson_id" json:"lesson_id"`
	ModuleID    primitive.ObjectID `bson:"module_id" json:"module_id"`
	CompletedAt time.Time          `bson:"completed_at" json:"completed_at"`
}
