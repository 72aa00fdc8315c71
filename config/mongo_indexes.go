package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDatabase returns the database chosen at InitMongo, "callassist" by default.
func MongoDatabase() *mongo.Database {
	return MongoClient.Database(mongoDatabase)
}

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	utterances := MongoDatabase().Collection("utterance_log")
	_, err := utterances.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// expires_at must be a Date for the TTL monitor to act on it
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("ttl_expires_at").
				SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "call_id", Value: 1}, {Key: "sequence", Value: 1}},
			Options: options.Index().
				SetName("uniq_call_sequence").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "call_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("by_call_ts"),
		},
	})
	return err
}
