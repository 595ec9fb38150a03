package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NoteMedia struct {
	URL         string `bson:"url" json:"url"`
	Key         string `bson:"key" json:"-"`
	Kind        string `bson:"kind" json:"kind"` // "image" or "video"
	ContentType string `bson:"content_type" json:"content_type"`
	Size        int64  `bson:"size" json:"size"`
	// ThumbnailURL is set for images only.
	ThumbnailURL string `bson:"thumbnail_url,omitempty" json:"thumbnail_url,omitempty"`
}

type UserNote struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Title     string              `bson:"title" json:"title" validate:"required,max=200"`
	Content   string              `bson:"content" json:"content"`
	LessonID  *primitive.ObjectID `bson:"lesson_id,omitempty" json:"lesson_id,omitempty"`
	Media     []NoteMedia         `bson:"media,omitempty" json:"media,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}
