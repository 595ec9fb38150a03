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

// ObjectiveRepository stores the objective catalog, its challenge links and
// the per-user selections.
type ObjectiveRepository struct {
	groups     *mongo.Collection
	items      *mongo.Collection
	links      *mongo.Collection
	selections *mongo.Collection
}

func NewObjectiveRepository(db *mongo.Database) *ObjectiveRepository {
	return &ObjectiveRepository{
		groups:     db.Collection("objective_groups"),
		items:      db.Collection("objective_items"),
		links:      db.Collection("objective_challenge_links"),
		selections: db.Collection("user_objectives"),
	}
}

func (r *ObjectiveRepository) GetGroups(ctx context.Context) ([]models.ObjectiveGroup, error) {
	cursor, err := r.groups.Find(ctx, bson.M{}, options.Find().SetSort(byOrderIndex))
	if err != nil {
		return nil, wrapErr(err, "failed to fetch objective groups")
	}
	defer cursor.Close(ctx)

	var groups []models.ObjectiveGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, wrapErr(err, "failed to decode objective groups")
	}
	return groups, nil
}

func (r *ObjectiveRepository) GetItems(ctx context.Context) ([]models.ObjectiveItem, error) {
	cursor, err := r.items.Find(ctx, bson.M{}, options.Find().SetSort(byOrderIndex))
	if err != nil {
		return nil, wrapErr(err, "failed to fetch objective items")
	}
	defer cursor.Close(ctx)

	var items []models.ObjectiveItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, wrapErr(err, "failed to decode objective items")
	}
	return items, nil
}

// UpsertGroup creates or replaces a group by key.
func (r *ObjectiveRepository) UpsertGroup(ctx context.Context, g *models.ObjectiveGroup) error {
	_, err := r.groups.UpdateOne(ctx, bson.M{"key": g.Key}, bson.M{"$set": bson.M{
		"key":         g.Key,
		"label":       g.Label,
		"order_index": g.OrderIndex,
	}}, options.Update().SetUpsert(true))
	if err != nil {
		return wrapErr(err, "failed to upsert objective group")
	}
	return nil
}

// UpsertItem creates or replaces an item by key.
func (r *ObjectiveRepository) UpsertItem(ctx context.Context, it *models.ObjectiveItem) error {
	_, err := r.items.UpdateOne(ctx, bson.M{"key": it.Key}, bson.M{"$set": bson.M{
		"key":            it.Key,
		"group_key":      it.GroupKey,
		"label":          it.Label,
		"tags":           it.Tags,
		"requires_infra": it.RequiresInfra,
		"is_infra":       it.IsInfra,
		"order_index":    it.OrderIndex,
	}}, options.Update().SetUpsert(true))
	if err != nil {
		return wrapErr(err, "failed to upsert objective item")
	}
	return nil
}

// GetLinks returns the challenge links of the given objective keys, or all
// links when keys is nil.
func (r *ObjectiveRepository) GetLinks(ctx context.Context, keys []string) ([]models.ObjectiveChallengeLink, error) {
	filter := bson.M{}
	if keys != nil {
		filter["objective_key"] = bson.M{"$in": keys}
	}
	cursor, err := r.links.Find(ctx, filter)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch objective links")
	}
	defer cursor.Close(ctx)

	var links []models.ObjectiveChallengeLink
	if err := cursor.All(ctx, &links); err != nil {
		return nil, wrapErr(err, "failed to decode objective links")
	}
	return links, nil
}

func (r *ObjectiveRepository) AddLink(ctx context.Context, key string, challengeID primitive.ObjectID) error {
	filter := bson.M{"objective_key": key, "challenge_id": challengeID}
	_, err := r.links.UpdateOne(ctx, filter, bson.M{"$setOnInsert": filter}, options.Update().SetUpsert(true))
	if err != nil {
		return wrapErr(err, "failed to add objective link")
	}
	return nil
}

func (r *ObjectiveRepository) RemoveLink(ctx context.Context, key string, challengeID primitive.ObjectID) error {
	result, err := r.links.DeleteOne(ctx, bson.M{"objective_key": key, "challenge_id": challengeID})
	return checkDeleted(result, err, "failed to remove objective link")
}

// GetSelection returns the saved keys of a user, or nil when none were saved.
func (r *ObjectiveRepository) GetSelection(ctx context.Context, userID primitive.ObjectID) ([]string, error) {
	var sel models.UserObjectives
	err := r.selections.FindOne(ctx, bson.M{"user_id": userID}).Decode(&sel)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err, "failed to fetch user objectives")
	}
	return sel.Keys, nil
}

func (r *ObjectiveRepository) SaveSelection(ctx context.Context, userID primitive.ObjectID, keys []string) error {
	_, err := r.selections.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{
		"user_id":    userID,
		"keys":       keys,
		"updated_at": time.Now().UTC(),
	}}, options.Update().SetUpsert(true))
	if err != nil {
		return wrapErr(err, "failed to save user objectives")
	}
	return nil
}
