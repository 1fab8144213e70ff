package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo establishes a connection to MongoDB and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri, dbName string, log *slog.Logger) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info("mongo connected", "database", dbName)
	return client.Database(dbName), nil
}

// ProvisionMongo creates the indexes backing uniqueness and tally queries.
// CreateMany is idempotent for identical index specs.
func ProvisionMongo(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"votes": {
			{
				Keys:    bson.D{{Key: "type", Value: 1}, {Key: "typeId", Value: 1}, {Key: "votedById", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_vote_triple"),
			},
			{
				Keys:    bson.D{{Key: "type", Value: 1}, {Key: "typeId", Value: 1}, {Key: "voteStatus", Value: 1}},
				Options: options.Index().SetName("idx_vote_tally"),
			},
		},
		"users": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_users_email"),
			},
		},
		"questions": {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("idx_questions_created")},
		},
		"answers": {
			{Keys: bson.D{{Key: "questionId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("idx_answers_question")},
		},
		"comments": {
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "typeId", Value: 1}}, Options: options.Index().SetName("idx_comment_target")},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
