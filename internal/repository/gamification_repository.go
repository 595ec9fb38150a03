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

// GamificationRepository covers XP totals, the XP ledger, streaks and badges.
type GamificationRepository struct {
	xp           *mongo.Collection
	transactions *mongo.Collection
	streaks      *mongo.Collection
	badges       *mongo.Collection
	userBadges   *mongo.Collection
}

func NewGamificationRepository(db *mongo.Database) *GamificationRepository {
	return &GamificationRepository{
		xp:           db.Collection("user_xp"),
		transactions: db.Collection("xp_transactions"),
		streaks:      db.Collection("user_streaks"),
		badges:       db.Collection("badges"),
		userBadges:   db.Collection("user_badges"),
	}
}

// AddXP atomically adds amount to the user's total and returns the new total.
func (r *GamificationRepository) AddXP(ctx context.Context, userID primitive.ObjectID, amount int64) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{
		"$inc":         bson.M{"total_xp": amount},
		"$set":         bson.M{"updated_at": time.Now().UTC()},
		"$setOnInsert": bson.M{"user_id": userID},
	}
	var row models.UserXP
	if err := r.xp.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&row); err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{"user_id": userID.Hex(), "amount": amount}).Error("Failed to add XP")
		return 0, wrapErr(err, "failed to add xp")
	}
	return row.TotalXP, nil
}

func (r *GamificationRepository) SetLevel(ctx context.Context, userID primitive.ObjectID, level int) error {
	_, err := r.xp.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{"level": level}})
	if err != nil {
		return wrapErr(err, "failed to set level")
	}
	return nil
}

// GetUserXP returns the XP row of a user or a zero row when none exists.
func (r *GamificationRepository) GetUserXP(ctx context.Context, userID primitive.ObjectID) (*models.UserXP, error) {
	var row models.UserXP
	err := r.xp.FindOne(ctx, bson.M{"user_id": userID}).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return &models.UserXP{UserID: userID, Level: 1}, nil
	}
	if err != nil {
		return nil, wrapErr(err, "failed to fetch user xp")
	}
	return &row, nil
}

// GetLeaderboard returns the top XP rows.
func (r *GamificationRepository) GetLeaderboard(ctx context.Context, limit int64) ([]models.UserXP, error) {
	opts := options.Find().SetSort(bson.D{{Key: "total_xp", Value: -1}, {Key: "updated_at", Value: 1}}).SetLimit(limit)
	cursor, err := r.xp.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch leaderboard")
	}
	defer cursor.Close(ctx)

	var rows []models.UserXP
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr(err, "failed to decode leaderboard")
	}
	return rows, nil
}

func (r *GamificationRepository) CreateTransaction(ctx context.Context, tx *models.XPTransaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if _, err := r.transactions.InsertOne(ctx, tx); err != nil {
		return wrapErr(err, "failed to insert xp transaction")
	}
	return nil
}

// GetTransactions returns the latest XP transactions of a user.
func (r *GamificationRepository) GetTransactions(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.XPTransaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.transactions.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch xp transactions")
	}
	defer cursor.Close(ctx)

	var txs []models.XPTransaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, wrapErr(err, "failed to decode xp transactions")
	}
	return txs, nil
}

// GetStreak returns the streak of a user or a zero streak when none exists.
func (r *GamificationRepository) GetStreak(ctx context.Context, userID primitive.ObjectID) (*models.UserStreak, error) {
	var s models.UserStreak
	err := r.streaks.FindOne(ctx, bson.M{"user_id": userID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return &models.UserStreak{UserID: userID}, nil
	}
	if err != nil {
		return nil, wrapErr(err, "failed to fetch streak")
	}
	return &s, nil
}

func (r *GamificationRepository) SaveStreak(ctx context.Context, s *models.UserStreak) error {
	s.UpdatedAt = time.Now().UTC()
	_, err := r.streaks.UpdateOne(ctx, bson.M{"user_id": s.UserID}, bson.M{"$set": bson.M{
		"user_id":            s.UserID,
		"current_streak":     s.CurrentStreak,
		"longest_streak":     s.LongestStreak,
		"last_activity_date": s.LastActivityDate,
		"updated_at":         s.UpdatedAt,
	}}, options.Update().SetUpsert(true))
	if err != nil {
		return wrapErr(err, "failed to save streak")
	}
	return nil
}

// ResetStaleStreaks zeroes running streaks whose last activity is before
// date (YYYY-MM-DD) and returns how many were reset.
func (r *GamificationRepository) ResetStaleStreaks(ctx context.Context, date string) (int64, error) {
	filter := bson.M{
		"current_streak":     bson.M{"$gt": 0},
		"last_activity_date": bson.M{"$lt": date},
	}
	result, err := r.streaks.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"current_streak": 0,
		"updated_at":     time.Now().UTC(),
	}})
	if err != nil {
		return 0, wrapErr(err, "failed to reset stale streaks")
	}
	return result.ModifiedCount, nil
}

func (r *GamificationRepository) CreateBadge(ctx context.Context, b *models.Badge) (*models.Badge, error) {
	b.CreatedAt = time.Now().UTC()
	result, err := r.badges.InsertOne(ctx, b)
	if err != nil {
		return nil, wrapErr(err, "failed to insert badge")
	}
	if b.ID, err = insertedID(result); err != nil {
		return nil, err
	}
	return b, nil
}

// UpsertBadge creates or updates a badge by key.
func (r *GamificationRepository) UpsertBadge(ctx context.Context, b *models.Badge) error {
	_, err := r.badges.UpdateOne(ctx, bson.M{"key": b.Key}, bson.M{
		"$set": bson.M{
			"key":            b.Key,
			"name":           b.Name,
			"description":    b.Description,
			"icon":           b.Icon,
			"criteria_type":  b.CriteriaType,
			"criteria_value": b.CriteriaValue,
			"active":         b.Active,
		},
		"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return wrapErr(err, "failed to upsert badge")
	}
	return nil
}

func (r *GamificationRepository) UpdateBadge(ctx context.Context, b *models.Badge) error {
	result, err := r.badges.UpdateOne(ctx, bson.M{"_id": b.ID}, bson.M{"$set": bson.M{
		"name":           b.Name,
		"description":    b.Description,
		"icon":           b.Icon,
		"criteria_type":  b.CriteriaType,
		"criteria_value": b.CriteriaValue,
		"active":         b.Active,
	}})
	return checkMatched(result, err, "failed to update badge")
}

func (r *GamificationRepository) DeleteBadge(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.badges.DeleteOne(ctx, bson.M{"_id": id})
	return checkDeleted(result, err, "failed to delete badge")
}

func (r *GamificationRepository) GetBadges(ctx context.Context, activeOnly bool) ([]models.Badge, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "criteria_type", Value: 1}, {Key: "criteria_value", Value: 1}})
	cursor, err := r.badges.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch badges")
	}
	defer cursor.Close(ctx)

	var badges []models.Badge
	if err := cursor.All(ctx, &badges); err != nil {
		return nil, wrapErr(err, "failed to decode badges")
	}
	return badges, nil
}

// AwardBadge records a badge once. It reports false when the user already
// owned it.
func (r *GamificationRepository) AwardBadge(ctx context.Context, userID, badgeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"user_id": userID, "badge_id": badgeID}
	update := bson.M{"$setOnInsert": bson.M{
		"user_id":    userID,
		"badge_id":   badgeID,
		"awarded_at": time.Now().UTC(),
	}}
	result, err := r.userBadges.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, wrapErr(err, "failed to award badge")
	}
	return result.UpsertedCount > 0, nil
}

func (r *GamificationRepository) GetUserBadges(ctx context.Context, userID primitive.ObjectID) ([]models.UserBadge, error) {
	opts := options.Find().SetSort(bson.D{{Key: "awarded_at", Value: -1}})
	cursor, err := r.userBadges.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch user badges")
	}
	defer cursor.Close(ctx)

	var rows []models.UserBadge
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr(err, "failed to decode user badges")
	}
	return rows, nil
}
