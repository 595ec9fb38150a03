package repository

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("already exists")
)

func wrapErr(err error, msg string) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func insertedID(result *mongo.InsertOneResult) (primitive.ObjectID, error) {
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("failed to cast inserted ID")
	}
	return id, nil
}

func checkMatched(result *mongo.UpdateResult, err error, msg string) error {
	if err != nil {
		return wrapErr(err, msg)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func checkDeleted(result *mongo.DeleteResult, err error, msg string) error {
	if err != nil {
		return wrapErr(err, msg)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
