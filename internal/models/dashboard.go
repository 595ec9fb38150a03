package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DashboardBanner struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title      string             `bson:"title" json:"title" validate:"required,max=200"`
	Body       string             `bson:"body" json:"body"`
	ImageURL   string             `bson:"image_url,omitempty" json:"image_url,omitempty" validate:"omitempty,url"`
	LinkURL    string             `bson:"link_url,omitempty" json:"link_url,omitempty" validate:"omitempty,url"`
	Active     bool               `bson:"active" json:"active"`
	StartsAt   *time.Time         `bson:"starts_at,omitempty" json:"starts_at,omitempty"`
	EndsAt     *time.Time         `bson:"ends_at,omitempty" json:"ends_at,omitempty"`
	OrderIndex int                `bson:"order_index" json:"order_index"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// Visible reports whether the banner should be shown at now.
func (b *DashboardBanner) Visible(now time.Time) bool {
	if !b.Active {
		return false
	}
	if b.StartsAt != nil && now.Before(*b.StartsAt) {
		return false
	}
	if b.EndsAt != nil && !now.Before(*b.EndsAt) {
		return false
	}
	return true
}

type SidebarItem struct {
	Key        string `bson:"key" json:"key" toml:"key" validate:"required"`
	Label      string `bson:"label" json:"label" toml:"label" validate:"required"`
	Visible    bool   `bson:"visible" json:"visible" toml:"visible"`
	OrderIndex int    `bson:"order_index" json:"order_index" toml:"order_index"`
}

// SidebarSettings is a singleton document.
type SidebarSettings struct {
	ID        string        `bson:"_id" json:"-"`
	Items     []SidebarItem `bson:"items" json:"items" validate:"dive"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updated_at"`
}

const SidebarSettingsID = "default"
