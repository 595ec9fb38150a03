package repository

import (
	"testing"
	"time"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestActivityQuery(t *testing.T) {
	user := primitive.NewObjectID()

	assert.Equal(t, bson.M{"user_id": user}, activityQuery(models.ActivityFilter{UserID: user}))

	one := activityQuery(models.ActivityFilter{UserID: user, Types: []string{"badge_awarded"}})
	assert.Equal(t, "badge_awarded", one["type"])

	before := time.Date(2024, 5, 10, 9, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	q := activityQuery(models.ActivityFilter{
		UserID: user,
		Types:  []string{"lesson_completed", "module_completed"},
		Before: before,
	})
	assert.Equal(t, bson.M{"$in": []string{"lesson_completed", "module_completed"}}, q["type"])
	assert.Equal(t, bson.M{"$lt": time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}, q["timestamp"])
}
