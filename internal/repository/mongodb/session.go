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
	SessionRepo struct {
		collection *mongo.Collection
	}
)

func NewSessionRepo(db *mongo.Database) *SessionRepo {
	return &SessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *SessionRepo) GetOrCreate(ctx context.Context, a, b primitive.ObjectID) (*model.Session, error) {
	low, high := model.PairKey(a, b)
	now := time.Now().UTC()

	// Atomic upsert keyed on the canonical pair. The unique index on
	// (low_id, high_id) guarantees at most one session per pair even under
	// concurrent first access.
	filter := bson.M{"low_id": low, "high_id": high}
	update := bson.M{"$setOnInsert": bson.M{
		"low_id":             low,
		"high_id":            high,
		"counter_for_low":    int64(0),
		"counter_for_high":   int64(0),
		"rotation_threshold": model.DefaultRotationThreshold,
		"created_at":         now,
		"last_rotated_at":    now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var session model.Session
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepo) AdvanceCounter(ctx context.Context, a, b, sender primitive.ObjectID, proposed int64) (*model.CounterResult, error) {
	low, high := model.PairKey(a, b)

	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"low_id": low, "high_id": high}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// The sender's slot is picked from identity ids alone; the order the
	// caller supplied the pair in is irrelevant.
	field := "counter_for_high"
	if sender == low {
		field = "counter_for_low"
	}

	// Conditional write: the update matches only while the stored counter
	// is still below the proposal, so two concurrent advances of the same
	// slot serialize and at most one of an equal pair wins.
	res := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": session.ID, field: bson.M{"$lt": proposed}},
		bson.M{"$set": bson.M{field: proposed}},
	)
	if err := res.Err(); err == mongo.ErrNoDocuments {
		// Rejected. Re-read the slot for the error report; the value may
		// already be newer than the one that caused the rejection.
		var current model.Session
		if err := r.collection.FindOne(ctx, bson.M{"_id": session.ID}).Decode(&current); err != nil {
			return nil, err
		}
		return nil, &model.ReplayError{
			Expected: current.CounterFor(sender) + 1,
			Received: proposed,
		}
	} else if err != nil {
		return nil, err
	}

	return &model.CounterResult{
		Counter:           proposed,
		NeedsRotation:     proposed >= session.RotationThreshold,
		RotationThreshold: session.RotationThreshold,
	}, nil
}

var _ repository.SessionRepo = (*SessionRepo)(nil)
