package repository

import (
	"context"
	"time"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRepository stores the per-user feed shown on the dashboard and in
// the mentor view of a mentee.
type ActivityRepository struct {
	collection *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{
		collection: db.Collection("activities"),
	}
}

func (r *ActivityRepository) InsertActivity(ctx context.Context, a *models.Activity) (*models.Activity, error) {
	result, err := r.collection.InsertOne(ctx, a)
	if err != nil {
		return nil, wrapErr(err, "failed to insert activity")
	}
	id, err := insertedID(result)
	if err != nil {
		return nil, err
	}
	a.ID = id
	return a, nil
}

// FindActivities returns one page of the feed described by f.
func (r *ActivityRepository) FindActivities(ctx context.Context, f models.ActivityFilter) ([]models.Activity, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(f.Limit)

	cursor, err := r.collection.Find(ctx, activityQuery(f), opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch activities")
	}
	defer cursor.Close(ctx)

	var out []models.Activity
	if err := cursor.All(ctx, &out); err != nil {
		return nil, wrapErr(err, "failed to decode activities")
	}
	return out, nil
}

// DeleteActivitiesBefore drops feed entries older than cutoff.
func (r *ActivityRepository) DeleteActivitiesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, wrapErr(err, "failed to prune activities")
	}
	logger.Log.WithField("deleted", result.DeletedCount).Info("Old activities pruned")
	return result.DeletedCount, nil
}

func activityQuery(f models.ActivityFilter) bson.M {
	q := bson.M{"user_id": f.UserID}
	switch len(f.Types) {
	case 0:
	case 1:
		q["type"] = f.Types[0]
	default:
		q["type"] = bson.M{"$in": f.Types}
	}
	if !f.Before.IsZero() {
		q["timestamp"] = bson.M{"$lt": f.Before.UTC()}
	}
	return q
}
