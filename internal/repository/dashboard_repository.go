package repository

import (
	"context"
	"time"

	"github.com/n8nhub/community_hub/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DashboardRepository stores banners and the sidebar settings singleton.
type DashboardRepository struct {
	banners  *mongo.Collection
	settings *mongo.Collection
}

func NewDashboardRepository(db *mongo.Database) *DashboardRepository {
	return &DashboardRepository{
		banners:  db.Collection("dashboard_banners"),
		settings: db.Collection("sidebar_settings"),
	}
}

func (r *DashboardRepository) CreateBanner(ctx context.Context, b *models.DashboardBanner) (*models.DashboardBanner, error) {
	b.CreatedAt = time.Now().UTC()
	result, err := r.banners.InsertOne(ctx, b)
	if err != nil {
		return nil, wrapErr(err, "failed to insert banner")
	}
	if b.ID, err = insertedID(result); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *DashboardRepository) UpdateBanner(ctx context.Context, b *models.DashboardBanner) error {
	result, err := r.banners.UpdateOne(ctx, bson.M{"_id": b.ID}, bson.M{"$set": bson.M{
		"title":       b.Title,
		"body":        b.Body,
		"image_url":   b.ImageURL,
		"link_url":    b.LinkURL,
		"active":      b.Active,
		"starts_at":   b.StartsAt,
		"ends_at":     b.EndsAt,
		"order_index": b.OrderIndex,
	}})
	return checkMatched(result, err, "failed to update banner")
}

func (r *DashboardRepository) DeleteBanner(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.banners.DeleteOne(ctx, bson.M{"_id": id})
	return checkDeleted(result, err, "failed to delete banner")
}

// GetBanners lists banners by order_index, optionally only active ones.
func (r *DashboardRepository) GetBanners(ctx context.Context, activeOnly bool) ([]models.DashboardBanner, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	cursor, err := r.banners.Find(ctx, filter, options.Find().SetSort(byOrderIndex))
	if err != nil {
		return nil, wrapErr(err, "failed to fetch banners")
	}
	defer cursor.Close(ctx)

	var banners []models.DashboardBanner
	if err := cursor.All(ctx, &banners); err != nil {
		return nil, wrapErr(err, "failed to decode banners")
	}
	return banners, nil
}

// GetSidebar returns the sidebar settings, or ErrNotFound before the first save.
func (r *DashboardRepository) GetSidebar(ctx context.Context) (*models.SidebarSettings, error) {
	var s models.SidebarSettings
	if err := r.settings.FindOne(ctx, bson.M{"_id": models.SidebarSettingsID}).Decode(&s); err != nil {
		return nil, wrapErr(err, "failed to fetch sidebar settings")
	}
	return &s, nil
}

func (r *DashboardRepository) SaveSidebar(ctx context.Context, s *models.SidebarSettings) error {
	s.ID = models.SidebarSettingsID
	s.UpdatedAt = time.Now().UTC()
	_, err := r.settings.ReplaceOne(ctx, bson.M{"_id": s.ID}, s, options.Replace().SetUpsert(true))
	if err != nil {
		return wrapErr(err, "failed to save sidebar settings")
	}
	return nil
}
