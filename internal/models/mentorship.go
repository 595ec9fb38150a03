package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MenteeActive   = "active"
	MenteeInactive = "inactive"
)

// Mentee is created when a user is promoted to the mentee role and turned
// inactive, never deleted, when the role is revoked.
type Mentee struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID  `bson:"user_id" json:"user_id"`
	MentorID       *primitive.ObjectID `bson:"mentor_id,omitempty" json:"mentor_id,omitempty"`
	PlanTag        string              `bson:"plan_tag,omitempty" json:"plan_tag,omitempty"`
	SchedulingURL  string              `bson:"scheduling_url,omitempty" json:"scheduling_url,omitempty"`
	CommunityURL   string              `bson:"community_url,omitempty" json:"community_url,omitempty"`
	WelcomeMessage string              `bson:"welcome_message,omitempty" json:"welcome_message,omitempty"`
	Status         string              `bson:"status" json:"status"`
	CurrentStageID *primitive.ObjectID `bson:"current_stage_id,omitempty" json:"current_stage_id,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
}

type MentorshipStage struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MenteeID   primitive.ObjectID `bson:"mentee_id" json:"mentee_id"`
	Title      string             `bson:"title" json:"title" validate:"required,max=200"`
	OrderIndex int                `bson:"order_index" json:"order_index"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

type MentorshipTask struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StageID   primitive.ObjectID `bson:"stage_id" json:"stage_id"`
	MenteeID  primitive.ObjectID `bson:"mentee_id" json:"mentee_id"`
	Title     string             `bson:"title" json:"title" validate:"required,max=200"`
	Done      bool               `bson:"done" json:"done"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type MentorshipNote struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MenteeID  primitive.ObjectID `bson:"mentee_id" json:"mentee_id"`
	AuthorID  primitive.ObjectID `bson:"author_id" json:"author_id"`
	Content   string             `bson:"content" json:"content" validate:"required"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

type MenteeTodo struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MenteeID  primitive.ObjectID `bson:"mentee_id" json:"mentee_id"`
	Title     string             `bson:"title" json:"title" validate:"required,max=200"`
	Done      bool               `bson:"done" json:"done"`
	DueAt     *time.Time         `bson:"due_at,omitempty" json:"due_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
