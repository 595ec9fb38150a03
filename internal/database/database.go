package database

import (
	"context"
	"fmt"
	"time"

	"github.com/n8nhub/community_hub/internal/config"
	"github.com/n8nhub/community_hub/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB opens the MongoDB connection and checks it with a ping.
func ConnectDB(cfg *config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Log.WithField("database", cfg.DBName).Info("Connected to MongoDB")
	return client.Database(cfg.DBName), nil
}

type index struct {
	collection string
	keys       bson.D
	unique     bool
}

var indexes = []index{
	{"users", bson.D{{Key: "email", Value: 1}}, true},
	{"user_roles", bson.D{{Key: "user_id", Value: 1}, {Key: "role", Value: 1}}, true},
	{"user_role_history", bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}, false},
	{"lessons", bson.D{{Key: "module_id", Value: 1}, {Key: "order_index", Value: 1}}, false},
	{"lesson_progress", bson.D{{Key: "user_id", Value: 1}, {Key: "lesson_id", Value: 1}}, true},
	{"daily_challenges", bson.D{{Key: "track", Value: 1}, {Key: "order_index", Value: 1}}, false},
	{"objective_items", bson.D{{Key: "key", Value: 1}}, true},
	{"objective_groups", bson.D{{Key: "key", Value: 1}}, true},
	{"objective_challenge_links", bson.D{{Key: "objective_key", Value: 1}, {Key: "challenge_id", Value: 1}}, true},
	{"user_objectives", bson.D{{Key: "user_id", Value: 1}}, true},
	{"user_challenge_progress", bson.D{{Key: "user_id", Value: 1}, {Key: "challenge_id", Value: 1}}, false},
	{"user_challenge_progress", bson.D{{Key: "deadline", Value: 1}}, false},
	{"mentees", bson.D{{Key: "user_id", Value: 1}}, true},
	{"user_xp", bson.D{{Key: "user_id", Value: 1}}, true},
	{"user_xp", bson.D{{Key: "total_xp", Value: -1}}, false},
	{"user_streaks", bson.D{{Key: "user_id", Value: 1}}, true},
	{"xp_transactions", bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}, false},
	{"badges", bson.D{{Key: "key", Value: 1}}, true},
	{"user_badges", bson.D{{Key: "user_id", Value: 1}, {Key: "badge_id", Value: 1}}, true},
	{"user_favorites", bson.D{{Key: "user_id", Value: 1}, {Key: "item_type", Value: 1}, {Key: "item_id", Value: 1}}, true},
	{"user_notes", bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}}, false},
	{"notifications", bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}, false},
	{"activities", bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}, false},
}

// EnsureIndexes creates the indexes the repositories rely on, including the
// unique ones that keep favorites, badges and roles idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, idx := range indexes {
		model := mongo.IndexModel{Keys: idx.keys}
		if idx.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.collection, err)
		}
	}
	logger.Log.WithField("count", len(indexes)).Info("Indexes ensured")
	return nil
}
