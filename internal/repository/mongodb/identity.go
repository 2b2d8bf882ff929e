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
	IdentityRepo struct {
		collection *mongo.Collection
	}
)

func NewIdentityRepo(db *mongo.Database) *IdentityRepo {
	return &IdentityRepo{
		collection: db.Collection("identities"),
	}
}

func (r *IdentityRepo) Create(ctx context.Context, identity *model.Identity) error {
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}

	res, err := r.collection.InsertOne(ctx, identity)
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrConflict
	}
	if err != nil {
		return err
	}

	identity.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *IdentityRepo) GetByUsername(ctx context.Context, username string) (*model.Identity, error) {
	filter := bson.M{
		"username": username,
	}

	var identity model.Identity
	err := r.collection.FindOne(ctx, filter).Decode(&identity)
	if err == mongo.ErrNoDocuments {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &identity, nil
}

func (r *IdentityRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Identity, error) {
	var identity model.Identity
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&identity)
	if err == mongo.ErrNoDocuments {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *IdentityRepo) List(ctx context.Context) ([]*model.Identity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var identities []*model.Identity
	if err := cursor.All(ctx, &identities); err != nil {
		return nil, err
	}
	return identities, nil
}

var _ repository.IdentityRepo = (*IdentityRepo)(nil)
