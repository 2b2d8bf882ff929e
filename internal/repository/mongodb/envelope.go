package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"spear/internal/model"
	"spear/internal/repository"
)

type (
	EnvelopeRepo struct {
		collection *mongo.Collection
	}
)

func NewEnvelopeRepo(db *mongo.Database) *EnvelopeRepo {
	return &EnvelopeRepo{
		collection: db.Collection("envelopes"),
	}
}

func (r *EnvelopeRepo) Deposit(ctx context.Context, env *model.Envelope) (primitive.ObjectID, error) {
	env.Delivered = false
	if env.CreatedAt.IsZero() {
		env.CreatedAt = time.Now().UTC()
	}

	res, err := r.collection.InsertOne(ctx, env)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id := res.InsertedID.(primitive.ObjectID)
	env.ID = id
	return id, nil
}

func (r *EnvelopeRepo) Pending(ctx context.Context, toID primitive.ObjectID) ([]*model.Envelope, error) {
	filter := bson.M{
		"to_id":     toID,
		"delivered": false,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var envelopes []*model.Envelope
	if err := cursor.All(ctx, &envelopes); err != nil {
		return nil, err
	}
	return envelopes, nil
}

func (r *EnvelopeRepo) Acknowledge(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{"delivered": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

var _ repository.EnvelopeRepo = (*EnvelopeRepo)(nil)
