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

type FavoriteRepository struct {
	collection *mongo.Collection
}

func NewFavoriteRepository(db *mongo.Database) *FavoriteRepository {
	return &FavoriteRepository{
		collection: db.Collection("user_favorites"),
	}
}

// AddFavorite upserts the favorite. It reports false when it already existed.
func (r *FavoriteRepository) AddFavorite(ctx context.Context, userID primitive.ObjectID, itemType string, itemID primitive.ObjectID) (bool, error) {
	filter := bson.M{"user_id": userID, "item_type": itemType, "item_id": itemID}
	update := bson.M{"$setOnInsert": bson.M{
		"user_id":    userID,
		"item_type":  itemType,
		"item_id":    itemID,
		"created_at": time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, wrapErr(err, "failed to add favorite")
	}
	return result.UpsertedCount > 0, nil
}

func (r *FavoriteRepository) RemoveFavorite(ctx context.Context, userID primitive.ObjectID, itemType string, itemID primitive.ObjectID) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "item_type": itemType, "item_id": itemID})
	if err != nil {
		return false, wrapErr(err, "failed to remove favorite")
	}
	return result.DeletedCount > 0, nil
}

func (r *FavoriteRepository) IsFavorite(ctx context.Context, userID primitive.ObjectID, itemType string, itemID primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "item_type": itemType, "item_id": itemID})
	if err != nil {
		return false, wrapErr(err, "failed to check favorite")
	}
	return n > 0, nil
}

// GetFavorites lists a user's favorites, newest first. An empty itemType
// returns all kinds.
func (r *FavoriteRepository) GetFavorites(ctx context.Context, userID primitive.ObjectID, itemType string) ([]models.Favorite, error) {
	filter := bson.M{"user_id": userID}
	if itemType != "" {
		filter["item_type"] = itemType
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch favorites")
	}
	defer cursor.Close(ctx)

	var favorites []models.Favorite
	if err := cursor.All(ctx, &favorites); err != nil {
		return nil, wrapErr(err, "failed to decode favorites")
	}
	return favorites, nil
}
