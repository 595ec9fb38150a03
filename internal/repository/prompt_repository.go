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

type PromptRepository struct {
	collection *mongo.Collection
}

func NewPromptRepository(db *mongo.Database) *PromptRepository {
	return &PromptRepository{
		collection: db.Collection("prompts"),
	}
}

func (r *PromptRepository) CreatePrompt(ctx context.Context, prompt *models.Prompt) (*models.Prompt, error) {
	now := time.Now().UTC()
	prompt.CreatedAt, prompt.UpdatedAt = now, now

	result, err := r.collection.InsertOne(ctx, prompt)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert prompt")
		return nil, wrapErr(err, "failed to insert prompt")
	}
	if prompt.ID, err = insertedID(result); err != nil {
		return nil, err
	}
	return prompt, nil
}

func (r *PromptRepository) UpdatePrompt(ctx context.Context, prompt *models.Prompt) error {
	prompt.UpdatedAt = time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": prompt.ID}, bson.M{"$set": bson.M{
		"title":       prompt.Title,
		"description": prompt.Description,
		"category":    prompt.Category,
		"tags":        prompt.Tags,
		"content":     prompt.Content,
		"variations":  prompt.Variations,
		"published":   prompt.Published,
		"updated_at":  prompt.UpdatedAt,
	}})
	return checkMatched(result, err, "failed to update prompt")
}

func (r *PromptRepository) DeletePrompt(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return checkDeleted(result, err, "failed to delete prompt")
}

func (r *PromptRepository) GetPromptByID(ctx context.Context, id primitive.ObjectID) (*models.Prompt, error) {
	var prompt models.Prompt
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&prompt); err != nil {
		return nil, wrapErr(err, "failed to fetch prompt by id")
	}
	return &prompt, nil
}

func (r *PromptRepository) GetPrompts(ctx context.Context, publishedOnly bool, category string) ([]models.Prompt, error) {
	filter := bson.M{}
	if publishedOnly {
		filter["published"] = true
	}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch prompts")
	}
	defer cursor.Close(ctx)

	var prompts []models.Prompt
	if err := cursor.All(ctx, &prompts); err != nil {
		return nil, wrapErr(err, "failed to decode prompts")
	}
	return prompts, nil
}

// SetVariationMedia sets the image_url or video_url of one variation.
func (r *PromptRepository) SetVariationMedia(ctx context.Context, promptID primitive.ObjectID, variationID, field, url string) error {
	filter := bson.M{"_id": promptID, "variations.id": variationID}
	update := bson.M{"$set": bson.M{
		"variations.$." + field: url,
		"updated_at":            time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	return checkMatched(result, err, "failed to set variation media")
}
