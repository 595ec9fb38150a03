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

type RoleRepository struct {
	roles   *mongo.Collection
	history *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{
		roles:   db.Collection("user_roles"),
		history: db.Collection("user_role_history"),
	}
}

// GetRoles returns the role names held by a user.
func (r *RoleRepository) GetRoles(ctx context.Context, userID primitive.ObjectID) ([]string, error) {
	cursor, err := r.roles.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, wrapErr(err, "failed to fetch roles")
	}
	defer cursor.Close(ctx)

	var rows []models.UserRole
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr(err, "failed to decode roles")
	}
	roles := make([]string, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, row.Role)
	}
	return roles, nil
}

// GrantRole upserts the (user, role) row. It reports false when the user
// already had the role.
func (r *RoleRepository) GrantRole(ctx context.Context, userID primitive.ObjectID, role string, grantedBy primitive.ObjectID) (bool, error) {
	filter := bson.M{"user_id": userID, "role": role}
	update := bson.M{"$setOnInsert": bson.M{
		"user_id":    userID,
		"role":       role,
		"granted_by": grantedBy,
		"created_at": time.Now().UTC(),
	}}
	result, err := r.roles.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{"user_id": userID.Hex(), "role": role}).Error("Failed to grant role")
		return false, wrapErr(err, "failed to grant role")
	}
	return result.UpsertedCount > 0, nil
}

// RevokeRole removes the (user, role) row. It reports false when there was
// nothing to remove.
func (r *RoleRepository) RevokeRole(ctx context.Context, userID primitive.ObjectID, role string) (bool, error) {
	result, err := r.roles.DeleteOne(ctx, bson.M{"user_id": userID, "role": role})
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{"user_id": userID.Hex(), "role": role}).Error("Failed to revoke role")
		return false, wrapErr(err, "failed to revoke role")
	}
	return result.DeletedCount > 0, nil
}

// GetUserIDsByRole lists the users holding role.
func (r *RoleRepository) GetUserIDsByRole(ctx context.Context, role string) ([]primitive.ObjectID, error) {
	cursor, err := r.roles.Find(ctx, bson.M{"role": role})
	if err != nil {
		return nil, wrapErr(err, "failed to fetch users by role")
	}
	defer cursor.Close(ctx)

	var rows []models.UserRole
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr(err, "failed to decode roles")
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	return ids, nil
}

func (r *RoleRepository) AddHistory(ctx context.Context, entry *models.RoleHistory) error {
	entry.CreatedAt = time.Now().UTC()
	if _, err := r.history.InsertOne(ctx, entry); err != nil {
		return wrapErr(err, "failed to insert role history")
	}
	return nil
}

// GetHistory returns the role changes of a user, newest first.
func (r *RoleRepository) GetHistory(ctx context.Context, userID primitive.ObjectID) ([]models.RoleHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.history.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch role history")
	}
	defer cursor.Close(ctx)

	var entries []models.RoleHistory
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, wrapErr(err, "failed to decode role history")
	}
	return entries, nil
}
