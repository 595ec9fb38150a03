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

type NoteRepository struct {
	collection *mongo.Collection
}

func NewNoteRepository(db *mongo.Database) *NoteRepository {
	return &NoteRepository{collection: db.Collection("user_notes")}
}

func (r *NoteRepository) CreateNote(ctx context.Context, note *models.UserNote) (*models.UserNote, error) {
	now := time.Now().UTC()
	note.CreatedAt, note.UpdatedAt = now, now

	result, err := r.collection.InsertOne(ctx, note)
	if err != nil {
		return nil, wrapErr(err, "failed to create note")
	}
	if note.ID, err = insertedID(result); err != nil {
		return nil, err
	}
	return note, nil
}

func (r *NoteRepository) GetNoteByID(ctx context.Context, id primitive.ObjectID) (*models.UserNote, error) {
	var note models.UserNote
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&note); err != nil {
		return nil, wrapErr(err, "failed to get note")
	}
	return &note, nil
}

// GetNotesByUser lists a user's notes, most recently edited first. A non-nil
// lessonID restricts the list to notes of that lesson.
func (r *NoteRepository) GetNotesByUser(ctx context.Context, userID primitive.ObjectID, lessonID *primitive.ObjectID) ([]models.UserNote, error) {
	filter := bson.M{"user_id": userID}
	if lessonID != nil {
		filter["lesson_id"] = *lessonID
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to get notes")
	}
	defer cursor.Close(ctx)

	var notes []models.UserNote
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, wrapErr(err, "failed to decode notes")
	}
	return notes, nil
}

// UpdateNoteAndReturn applies updates and returns the stored note.
func (r *NoteRepository) UpdateNoteAndReturn(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.UserNote, error) {
	updates["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var note models.UserNote
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": updates}, opts).Decode(&note)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to update note and return updated object")
		return nil, wrapErr(err, "failed to update note")
	}
	return &note, nil
}

func (r *NoteRepository) AddMedia(ctx context.Context, id primitive.ObjectID, media models.NoteMedia) (*models.UserNote, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$push": bson.M{"media": media},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	var note models.UserNote
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&note); err != nil {
		return nil, wrapErr(err, "failed to add note media")
	}
	return &note, nil
}

func (r *NoteRepository) RemoveMedia(ctx context.Context, id primitive.ObjectID, key string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"media": bson.M{"key": key}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return checkMatched(result, err, "failed to remove note media")
}

func (r *NoteRepository) DeleteNote(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return checkDeleted(result, err, "failed to delete note")
}
