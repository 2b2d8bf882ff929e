package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on: unique
// usernames, one session per canonical pair, and the pending-envelope scan.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("identities").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("sessions").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "low_id", Value: 1}, {Key: "high_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("envelopes").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "to_id", Value: 1}, {Key: "delivered", Value: 1}},
	})
	return err
}
