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

// MentorshipRepository stores mentee profiles and their stages, tasks,
// notes and todos.
type MentorshipRepository struct {
	mentees *mongo.Collection
	stages  *mongo.Collection
	tasks   *mongo.Collection
	notes   *mongo.Collection
	todos   *mongo.Collection
}

func NewMentorshipRepository(db *mongo.Database) *MentorshipRepository {
	return &MentorshipRepository{
		mentees: db.Collection("mentees"),
		stages:  db.Collection("mentorship_stages"),
		tasks:   db.Collection("mentorship_tasks"),
		notes:   db.Collection("mentorship_notes"),
		todos:   db.Collection("mentee_todos"),
	}
}

func (r *MentorshipRepository) GetMenteeByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Mentee, error) {
	var m models.Mentee
	if err := r.mentees.FindOne(ctx, bson.M{"user_id": userID}).Decode(&m); err != nil {
		return nil, wrapErr(err, "failed to fetch mentee")
	}
	return &m, nil
}

func (r *MentorshipRepository) GetMenteeByID(ctx context.Context, id primitive.ObjectID) (*models.Mentee, error) {
	var m models.Mentee
	if err := r.mentees.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, wrapErr(err, "failed to fetch mentee")
	}
	return &m, nil
}

// ActivateMentee creates the mentee profile of a user, or flips an existing
// one back to active. It reports true when the profile was created.
func (r *MentorshipRepository) ActivateMentee(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{"status": models.MenteeActive, "updated_at": now},
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"created_at": now,
		},
	}
	result, err := r.mentees.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to activate mentee")
		return false, wrapErr(err, "failed to activate mentee")
	}
	return result.UpsertedCount > 0, nil
}

// SetMenteeStatus changes the status of a user's mentee profile. A missing
// profile is not an error.
func (r *MentorshipRepository) SetMenteeStatus(ctx context.Context, userID primitive.ObjectID, status string) error {
	_, err := r.mentees.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return wrapErr(err, "failed to set mentee status")
	}
	return nil
}

// UpdateMentee sets the given fields on a mentee profile.
func (r *MentorshipRepository) UpdateMentee(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.Mentee, error) {
	fields["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.Mentee
	if err := r.mentees.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&m); err != nil {
		return nil, wrapErr(err, "failed to update mentee")
	}
	return &m, nil
}

// ListMentees lists mentees, optionally of one mentor and with one status.
func (r *MentorshipRepository) ListMentees(ctx context.Context, mentorID *primitive.ObjectID, status string) ([]models.Mentee, error) {
	filter := bson.M{}
	if mentorID != nil {
		filter["mentor_id"] = *mentorID
	}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.mentees.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch mentees")
	}
	defer cursor.Close(ctx)

	var mentees []models.Mentee
	if err := cursor.All(ctx, &mentees); err != nil {
		return nil, wrapErr(err, "failed to decode mentees")
	}
	return mentees, nil
}

func (r *MentorshipRepository) CreateStage(ctx context.Context, s *models.MentorshipStage) (*models.MentorshipStage, error) {
	s.CreatedAt = time.Now().UTC()
	result, err := r.stages.InsertOne(ctx, s)
	if err != nil {
		return nil, wrapErr(err, "failed to insert stage")
	}
	if s.ID, err = insertedID(result); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *MentorshipRepository) GetStages(ctx context.Context, menteeID primitive.ObjectID) ([]models.MentorshipStage, error) {
	cursor, err := r.stages.Find(ctx, bson.M{"mentee_id": menteeID}, options.Find().SetSort(byOrderIndex))
	if err != nil {
		return nil, wrapErr(err, "failed to fetch stages")
	}
	defer cursor.Close(ctx)

	var stages []models.MentorshipStage
	if err := cursor.All(ctx, &stages); err != nil {
		return nil, wrapErr(err, "failed to decode stages")
	}
	return stages, nil
}

// DeleteStage removes a stage of a mentee and its tasks.
func (r *MentorshipRepository) DeleteStage(ctx context.Context, menteeID, id primitive.ObjectID) error {
	result, err := r.stages.DeleteOne(ctx, bson.M{"_id": id, "mentee_id": menteeID})
	if err := checkDeleted(result, err, "failed to delete stage"); err != nil {
		return err
	}
	if _, err := r.tasks.DeleteMany(ctx, bson.M{"stage_id": id}); err != nil {
		return wrapErr(err, "failed to delete stage tasks")
	}
	return nil
}

func (r *MentorshipRepository) CreateTask(ctx context.Context, t *models.MentorshipTask) (*models.MentorshipTask, error) {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	result, err := r.tasks.InsertOne(ctx, t)
	if err != nil {
		return nil, wrapErr(err, "failed to insert task")
	}
	if t.ID, err = insertedID(result); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *MentorshipRepository) GetTasks(ctx context.Context, menteeID primitive.ObjectID) ([]models.MentorshipTask, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.tasks.Find(ctx, bson.M{"mentee_id": menteeID}, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch tasks")
	}
	defer cursor.Close(ctx)

	var tasks []models.MentorshipTask
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, wrapErr(err, "failed to decode tasks")
	}
	return tasks, nil
}

func (r *MentorshipRepository) SetTaskDone(ctx context.Context, menteeID, id primitive.ObjectID, done bool) error {
	result, err := r.tasks.UpdateOne(ctx, bson.M{"_id": id, "mentee_id": menteeID}, bson.M{"$set": bson.M{
		"done":       done,
		"updated_at": time.Now().UTC(),
	}})
	return checkMatched(result, err, "failed to update task")
}

func (r *MentorshipRepository) DeleteTask(ctx context.Context, menteeID, id primitive.ObjectID) error {
	result, err := r.tasks.DeleteOne(ctx, bson.M{"_id": id, "mentee_id": menteeID})
	return checkDeleted(result, err, "failed to delete task")
}

func (r *MentorshipRepository) CreateNote(ctx context.Context, n *models.MentorshipNote) (*models.MentorshipNote, error) {
	n.CreatedAt = time.Now().UTC()
	result, err := r.notes.InsertOne(ctx, n)
	if err != nil {
		return nil, wrapErr(err, "failed to insert mentorship note")
	}
	if n.ID, err = insertedID(result); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *MentorshipRepository) GetNotes(ctx context.Context, menteeID primitive.ObjectID) ([]models.MentorshipNote, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.notes.Find(ctx, bson.M{"mentee_id": menteeID}, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch mentorship notes")
	}
	defer cursor.Close(ctx)

	var notes []models.MentorshipNote
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, wrapErr(err, "failed to decode mentorship notes")
	}
	return notes, nil
}

func (r *MentorshipRepository) DeleteNote(ctx context.Context, menteeID, id primitive.ObjectID) error {
	result, err := r.notes.DeleteOne(ctx, bson.M{"_id": id, "mentee_id": menteeID})
	return checkDeleted(result, err, "failed to delete mentorship note")
}

func (r *MentorshipRepository) CreateTodo(ctx context.Context, t *models.MenteeTodo) (*models.MenteeTodo, error) {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	result, err := r.todos.InsertOne(ctx, t)
	if err != nil {
		return nil, wrapErr(err, "failed to insert todo")
	}
	if t.ID, err = insertedID(result); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *MentorshipRepository) GetTodos(ctx context.Context, menteeID primitive.ObjectID) ([]models.MenteeTodo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "done", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := r.todos.Find(ctx, bson.M{"mentee_id": menteeID}, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to fetch todos")
	}
	defer cursor.Close(ctx)

	var todos []models.MenteeTodo
	if err := cursor.All(ctx, &todos); err != nil {
		return nil, wrapErr(err, "failed to decode todos")
	}
	return todos, nil
}

func (r *MentorshipRepository) SetTodoDone(ctx context.Context, menteeID, id primitive.ObjectID, done bool) error {
	result, err := r.todos.UpdateOne(ctx, bson.M{"_id": id, "mentee_id": menteeID}, bson.M{"$set": bson.M{
		"done":       done,
		"updated_at": time.Now().UTC(),
	}})
	return checkMatched(result, err, "failed to update todo")
}

func (r *MentorshipRepository) DeleteTodo(ctx context.Context, menteeID, id primitive.ObjectID) error {
	result, err := r.todos.DeleteOne(ctx, bson.M{"_id": id, "mentee_id": menteeID})
	return checkDeleted(result, err, "failed to delete todo")
}
