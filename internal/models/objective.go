package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ObjectiveGroup struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id" toml:"-"`
	Key        string             `bson:"key" json:"key" toml:"key"`
	Label      string             `bson:"label" json:"label" toml:"label"`
	OrderIndex int                `bson:"order_index" json:"order_index" toml:"order_index"`
}

type ObjectiveItem struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id" toml:"-"`
	Key           string             `bson:"key" json:"key" toml:"key"`
	GroupKey      string             `bson:"group_key" json:"group_key" toml:"group_key"`
	Label         string             `bson:"label" json:"label" toml:"label"`
	Tags          []string           `bson:"tags,omitempty" json:"tags,omitempty" toml:"tags"`
	RequiresInfra bool               `bson:"requires_infra" json:"requires_infra" toml:"requires_infra"`
	IsInfra       bool               `bson:"is_infra" json:"is_infra" toml:"is_infra"`
	OrderIndex    int                `bson:"order_index" json:"order_index" toml:"order_index"`
}

type ObjectiveChallengeLink struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ObjectiveKey string             `bson:"objective_key" json:"objective_key"`
	ChallengeID  primitive.ObjectID `bson:"challenge_id" json:"challenge_id"`
}

type UserObjectives struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Keys      []string           `bson:"keys" json:"keys"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
