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

// CourseRepository stores modules, lessons and lesson completions.
type CourseRepository struct {
	modules  *mongo.Collection
	lessons  *mongo.Collection
	progress *mongo.Collection
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{
		modules:  db.Collection("modules"),
		lessons:  db.Collection("lessons"),
		progress: db.Collection("lesson_progress"),
	}
}

var byOrderIndex = bson.D{{Key: "order_index", Value: 1}, {Key: "_id", Value: 1}}

func (r *CourseRepository) CreateModule(ctx context.Context, m *models.Module) (*models.Module, error) {
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	result, err := r.modules.InsertOne(ctx, m)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert module")
		return nil, wrapErr(err, "failed to insert module")
	}
	if m.ID, err = insertedID(result); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *CourseRepository) UpdateModule(ctx context.Context, m *models.Module) error {
	m.UpdatedAt = time.Now().UTC()
	result, err := r.modules.UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": bson.M{
		"title":       m.Title,
		"description": m.Description,
		"cover_url":   m.CoverURL,
		"order_index": m.OrderIndex,
		"published":   m.Published,
		"updated_at":  m.UpdatedAt,
	}})
	return checkMatched(result, err, "failed to update module")
}

// DeleteModule removes a module together with its lessons.
func (r *CourseRepository) DeleteModule(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.modules.DeleteOne(ctx, bson.M{"_id": id})
	if err := checkDeleted(result, err, "failed to delete module"); err != nil {
		return err
	}
	if _, err := r.lessons.DeleteMany(ctx, bson.M{"module_id": id}); err != nil {
		return wrapErr(err, "failed to delete module lessons")
	}
	return nil
}

func (r *CourseRepository) GetModuleByID(ctx context.Context, id primitive.ObjectID) (*models.Module, error) {
	var m models.Module
	if err := r.modules.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, wrapErr(err, "failed to fetch module")
	}
	return &m, nil
}

// GetModules lists modules by order_index.
func (r *CourseRepository) GetModules(ctx context.Context, publishedOnly bool) ([]models.Module, error) {
	filter := bson.M{}
	if publishedOnly {
		filter["published"] = true
	}
	cursor, err := r.modules.Find(ctx, filter, options.Find().SetSort(byOrderIndex))
	if err != nil {
		return nil, wrapErr(err, "failed to fetch modules")
	}
	defer cursor.Close(ctx)

	var modules []models.Module
	if err := cursor.All(ctx, &modules); err != nil {
		return nil, wrapErr(err, "failed to decode modules")
	}
	return modules, nil
}

func (r *CourseRepository) CreateLesson(ctx context.Context, l *models.Lesson) (*models.Lesson, error) {
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now

	result, err := r.lessons.InsertOne(ctx, l)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert lesson")
		return nil, wrapErr(err, "failed to insert lesson")
	}
	if l.ID, err = insertedID(result); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *CourseRepository) UpdateLesson(ctx context.Context, l *models.Lesson) error {
	l.UpdatedAt = time.Now().UTC()
	result, err := r.lessons.UpdateOne(ctx, bson.M{"_id": l.ID}, bson.M{"$set": bson.M{
		"title":            l.Title,
		"content":          l.Content,
		"video_url":        l.VideoURL,
		"duration_minutes": l.DurationMinutes,
		"order_index":      l.OrderIndex,
		"xp_reward":        l.XPReward,
		"updated_at":       l.UpdatedAt,
	}})
	return checkMatched(result, err, "failed to update lesson")
}

func (r *CourseRepository) DeleteLesson(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.lessons.DeleteOne(ctx, bson.M{"_id": id})
	return checkDeleted(result, err, "failed to delete lesson")
}

func (r *CourseRepository) GetLessonByID(ctx context.Context, id primitive.ObjectID) (*models.Lesson, error) {
	var l models.Lesson
	if err := r.lessons.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return nil, wrapErr(err, "failed to fetch lesson")
	}
	return &l, nil
}

// GetLessonsByModules returns the lessons of the given modules by order_index.
func (r *CourseRepository) GetLessonsByModules(ctx context.Context, moduleIDs []primitive.ObjectID) ([]models.Lesson, error) {
	if len(moduleIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{"module_id": bson.M{"$in": moduleIDs}}
	cursor, err := r.lessons.Find(ctx, filter, options.Find().SetSort(byOrderIndex))
	if err != nil {
		return nil, wrapErr(err, "failed to fetch lessons")
	}
	defer cursor.Close(ctx)

	var lessons []models.Lesson
	if err := cursor.All(ctx, &lessons); err != nil {
		return nil, wrapErr(err, "failed to decode lessons")
	}
	return lessons, nil
}

// MarkLessonCompleted records a completion once. It reports false when the
// lesson was already completed.
func (r *CourseRepository) MarkLessonCompleted(ctx context.Context, p *models.LessonProgress) (bool, error) {
	filter := bson.M{"user_id": p.UserID, "lesson_id": p.LessonID}
	update := bson.M{"$setOnInsert": bson.M{
		"user_id":      p.UserID,
		"lesson_id":    p.LessonID,
		"module_id":    p.ModuleID,
		"completed_at": p.CompletedAt,
	}}
	result, err := r.progress.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		logger.Log.WithError(err).WithField("lesson_id", p.LessonID.Hex()).Error("Failed to mark lesson completed")
		return false, wrapErr(err, "failed to mark lesson completed")
	}
	return result.UpsertedCount > 0, nil
}

// GetLessonProgress returns all lesson completions of a user.
func (r *CourseRepository) GetLessonProgress(ctx context.Context, userID primitive.ObjectID) ([]models.LessonProgress, error) {
	cursor, err := r.progress.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, wrapErr(err, "failed to fetch lesson progress")
	}
	defer cursor.Close(ctx)

	var rows []models.LessonProgress
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, wrapErr(err, "failed to decode lesson progress")
	}
	return rows, nil
}

func (r *CourseRepository) CountCompletedLessons(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := r.progress.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, wrapErr(err, "failed to count completed lessons")
	}
	return n, nil
}
