package repository

import (
	"context"
	"time"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChallengeRepository handles the daily_challenges collection.
type ChallengeRepository struct {
	collection *mongo.Collection
}

func NewChallengeRepository(db *mongo.Database) *ChallengeRepository {
	return &ChallengeRepository{
		collection: db.Collection("daily_challenges"),
	}
}

func (r *ChallengeRepository) CreateChallenge(ctx context.Context, c *models.DailyChallenge) (*models.DailyChallenge, error) {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	result, err := r.collection.InsertOne(ctx, c)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert challenge")
		return nil, wrapErr(err, "failed to insert challenge")
	}
	if c.ID, err = insertedID(result); err != nil {
		return nil, err
	}

	logger.Log.WithField("challenge_id", c.ID.Hex()).Info("Challenge created successfully")
	return c, nil
}

func (r *ChallengeRepository) GetChallengeByID(ctx context.Context, id primitive.ObjectID) (*models.DailyChallenge, error) {
	var c models.DailyChallenge
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, wrapErr(err, "failed to fetch challenge")
	}
	return &c, nil
}

// UpdateChallenge replaces the content fields. Chain fields are changed
// through UpdateLink.
func (r *ChallengeRepository) UpdateChallenge(ctx context.Context, c *models.DailyChallenge) error {
	c.UpdatedAt = time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"title":             c.Title,
		"objective":         c.Objective,
		"track":             c.Track,
		"difficulty":        c.Difficulty,
		"estimated_minutes": c.EstimatedMinutes,
		"duration_hours":    c.DurationHours,
		"steps":             c.Steps,
		"checklist":         c.Checklist,
		"deliverable":       c.Deliverable,
		"is_bonus":          c.IsBonus,
		"xp_reward":         c.XPReward,
		"updated_at":        c.UpdatedAt,
	}})
	if err := checkMatched(result, err, "failed to update challenge"); err != nil {
		logger.Log.WithError(err).WithField("challenge_id", c.ID.Hex()).Error("Failed to update challenge")
		return err
	}
	return nil
}

// UpdateLink sets the chain position of a challenge.
func (r *ChallengeRepository) UpdateLink(ctx context.Context, id primitive.ObjectID, orderIndex int, initial bool, predecessor *primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"order_index":              orderIndex,
		"is_initial_active":        initial,
		"predecessor_challenge_id": predecessor,
		"updated_at":               time.Now().UTC(),
	}})
	return checkMatched(result, err, "failed to update challenge link")
}

// DeleteChallenge removes a challenge. Successors keep their dangling
// predecessor and become available as orphans.
func (r *ChallengeRepository) DeleteChallenge(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err := checkDeleted(result, err, "failed to delete challenge"); err != nil {
		return err
	}
	logger.Log.WithField("challenge_id", id.Hex()).Info("Challenge deleted successfully")
	return nil
}

// GetChallenges lists challenges of a track, or all of them when track is
// empty, by order_index.
func (r *ChallengeRepository) GetChallenges(ctx context.Context, track string) ([]models.DailyChallenge, error) {
	filter := bson.M{}
	if track != "" {
		filter["track"] = track
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(byOrderIndex))
	if err != nil {
		return nil, wrapErr(err, "failed to fetch challenges")
	}
	defer cursor.Close(ctx)

	var challenges []models.DailyChallenge
	if err := cursor.All(ctx, &challenges); err != nil {
		return nil, wrapErr(err, "failed to decode challenges")
	}
	return challenges, nil
}

func (r *ChallengeRepository) GetChallengesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.DailyChallenge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(byOrderIndex))
	if err != nil {
		return nil, wrapErr(err, "failed to fetch challenges by IDs")
	}
	defer cursor.Close(ctx)

	var challenges []models.DailyChallenge
	if err := cursor.All(ctx, &challenges); err != nil {
		return nil, wrapErr(err, "failed to decode challenges")
	}
	return challenges, nil
}

// GetTracks returns the distinct track names.
func (r *ChallengeRepository) GetTracks(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "track", bson.M{})
	if err != nil {
		return nil, wrapErr(err, "failed to fetch tracks")
	}
	tracks := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			tracks = append(tracks, s)
		}
	}
	return tracks, nil
}
