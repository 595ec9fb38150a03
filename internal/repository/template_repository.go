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

type TemplateRepository struct {
	collection *mongo.Collection
}

func NewTemplateRepository(db *mongo.Database) *TemplateRepository {
	return &TemplateRepository{
		collection: db.Collection("templates"),
	}
}

func (r *TemplateRepository) CreateTemplate(ctx context.Context, template *models.Template) (*models.Template, error) {
	now := time.Now().UTC()
	template.CreatedAt, template.UpdatedAt = now, now

	result, err := r.collection.InsertOne(ctx, template)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert template")
		return nil, wrapErr(err, "failed to insert template")
	}
	if template.ID, err = insertedID(result); err != nil {
		return nil, err
	}
	return template, nil
}

func (r *TemplateRepository) UpdateTemplate(ctx context.Context, template *models.Template) error {
	template.UpdatedAt = time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": template.ID}, bson.M{"$set": bson.M{
		"title":         template.Title,
		"description":   template.Description,
		"category":      template.Category,
		"tags":          template.Tags,
		"workflow_json": template.WorkflowJSON,
		"preview_url":   template.PreviewURL,
		"published":     template.Published,
		"updated_at":    template.UpdatedAt,
	}})
	return checkMatched(result, err, "failed to update template")
}

func (r *TemplateRepository) DeleteTemplate(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return checkDeleted(result, err, "failed to delete template")
}

func (r *TemplateRepository) GetTemplateByID(ctx context.Context, id primitive.ObjectID) (*models.Template, error) {
	var template models.Template
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&template); err != nil {
		return nil, wrapErr(err, "failed to fetch template by id")
	}
	return &template, nil
}

// GetTemplates returns templates, newest first, optionally only published
// ones of a category.
func (r *TemplateRepository) GetTemplates(ctx context.Context, publishedOnly bool, category string) ([]models.Template, error) {
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
		return nil, wrapErr(err, "failed to fetch templates")
	}
	defer cursor.Close(ctx)

	var templates []models.Template
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, wrapErr(err, "failed to decode templates")
	}
	return templates, nil
}

// IncrementCopies bumps the copy counter of a template.
func (r *TemplateRepository) IncrementCopies(ctx context.Context, id primitive.ObjectID) (int64, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var template models.Template
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"copies": 1}}, opts).Decode(&template)
	if err != nil {
		return 0, wrapErr(err, "failed to increment template copies")
	}
	return template.Copies, nil
}
