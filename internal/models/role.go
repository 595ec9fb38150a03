package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin  = "admin"
	RoleMentor = "mentor"
	RoleMentee = "mentee"
	RoleUser   = "user"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleMentor, RoleMentee, RoleUser:
		return true
	}
	return false
}

type UserRole struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role      string             `bson:"role" json:"role"`
	GrantedBy primitive.ObjectID `bson:"granted_by,omitempty" json:"granted_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

const (
	RoleActionGranted = "granted"
	RoleActionRevoked = "revoked"
)

type RoleHistory struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role      string             `bson:"role" json:"role"`
	Action    string             `bson:"action" json:"action"` // "granted" or "revoked"
	ActorID   primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
