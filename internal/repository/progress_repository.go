package repository

import (
	"context"
	"time"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProgressRepository stores challenge attempts.
type ProgressRepository struct {
	collection *mongo.Collection
}

func NewProgressRepository(db *mongo.Database) *ProgressRepository {
	return &ProgressRepository{
		collection: db.Collection("user_challenge_progress"),
	}
}

func (r *ProgressRepository) CreateProgress(ctx context.Context, p *models.ChallengeProgress) (*models.ChallengeProgress, error) {
	result, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert challenge progress")
		return nil, wrapErr(err, "failed to insert challenge progress")
	}
	if p.ID, err = insertedID(result); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"progress_id":  p.ID.Hex(),
		"challenge_id": p.ChallengeID.Hex(),
	}).Info("Challenge started")
	return p, nil
}

// GetProgressByUser returns every attempt of a user, oldest first.
func (r *ProgressRepository) GetProgressByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ChallengeProgress, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch challenge progress")
	}
	defer cursor.Close(ctx)

	var rows []models.ChallengeProgress
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr(err, "failed to decode challenge progress")
	}
	return rows, nil
}

// CompleteProgress stamps completed_at on an attempt that is still running
// at "at". It returns ErrNotFound when no such attempt exists.
func (r *ProgressRepository) CompleteProgress(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	filter := bson.M{
		"_id":          id,
		"completed_at": nil,
		"deadline":     bson.M{"$gt": at},
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"completed_at": at}})
	return checkMatched(result, err, "failed to complete challenge progress")
}

func (r *ProgressRepository) CountCompleted(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "completed_at": bson.M{"$ne": nil}})
	if err != nil {
		return 0, wrapErr(err, "failed to count completed challenges")
	}
	return n, nil
}

// GetDueForWarning returns running attempts whose deadline falls in
// (now, now+within] and that were not warned yet.
func (r *ProgressRepository) GetDueForWarning(ctx context.Context, now time.Time, within time.Duration) ([]models.ChallengeProgress, error) {
	filter := bson.M{
		"completed_at": nil,
		"warning_sent": bson.M{"$ne": true},
		"deadline":     bson.M{"$gt": now, "$lte": now.Add(within)},
	}
	return r.find(ctx, filter)
}

// GetExpiredUnnoted returns attempts that expired after since, were never
// completed and were not reported yet.
func (r *ProgressRepository) GetExpiredUnnoted(ctx context.Context, since, now time.Time) ([]models.ChallengeProgress, error) {
	filter := bson.M{
		"completed_at":  nil,
		"expired_noted": bson.M{"$ne": true},
		"deadline":      bson.M{"$gt": since, "$lte": now},
	}
	return r.find(ctx, filter)
}

// MarkFlag sets warning_sent or expired_noted on an attempt.
func (r *ProgressRepository) MarkFlag(ctx context.Context, id primitive.ObjectID, flag string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{flag: true}})
	if err != nil {
		return wrapErr(err, "failed to mark challenge progress")
	}
	return nil
}

func (r *ProgressRepository) find(ctx context.Context, filter bson.M) ([]models.ChallengeProgress, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch challenge progress")
	}
	defer cursor.Close(ctx)

	var rows []models.ChallengeProgress
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr(err, "failed to decode challenge progress")
	}
	return rows, nil
}
