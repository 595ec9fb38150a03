package services

import "go.mongodb.org/mongo-driver/bson/primitive"

// ParseID converts a hex string to an ObjectID.
func ParseID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return objID, nil
}
