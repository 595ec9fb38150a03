package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Template is a downloadable n8n workflow.
type Template struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title" validate:"required,max=200"`
	Description  string             `bson:"description" json:"description"`
	Category     string             `bson:"category,omitempty" json:"category,omitempty"`
	Tags         []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	WorkflowJSON string             `bson:"workflow_json" json:"workflow_json,omitempty" validate:"omitempty,json"`
	PreviewURL   string             `bson:"preview_url,omitempty" json:"preview_url,omitempty" validate:"omitempty,url"`
	AuthorID     primitive.ObjectID `bson:"author_id" json:"author_id"`
	Published    bool               `bson:"published" json:"published"`
	Copies       int64              `bson:"copies" json:"copies"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Prompt is a reusable AI prompt with optional variations.
type Prompt struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title" validate:"required,max=200"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Content     string             `bson:"content" json:"content" validate:"required"`
	Variations  []PromptVariation  `bson:"variations,omitempty" json:"variations,omitempty" validate:"dive"`
	AuthorID    primitive.ObjectID `bson:"author_id" json:"author_id"`
	Published   bool               `bson:"published" json:"published"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

type PromptVariation struct {
	ID       string `bson:"id" json:"id"`
	Label    string `bson:"label" json:"label" validate:"required,max=100"`
	Content  string `bson:"content" json:"content"`
	ImageURL string `bson:"image_url,omitempty" json:"image_url,omitempty"`
	VideoURL string `bson:"video_url,omitempty" json:"video_url,omitempty"`
}

const (
	FavoriteTemplate = "template"
	FavoritePrompt   = "prompt"
	FavoriteLesson   = "lesson"
)

// ValidFavoriteType reports whether t can be favorited.
func ValidFavoriteType(t string) bool {
	return t == FavoriteTemplate || t == FavoritePrompt || t == FavoriteLesson
}

type Favorite struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	ItemType  string             `bson:"item_type" json:"item_type"`
	ItemID    primitive.ObjectID `bson:"item_id" json:"item_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
