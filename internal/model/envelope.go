package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type (
	// Envelope is one encrypted message queued for a recipient. Rows are
	// never deleted; delivery flips the Delivered flag.
	Envelope struct {
		ID         primitive.ObjectID `bson:"_id,omitempty"`
		FromID     primitive.ObjectID `bson:"from_id"`
		ToID       primitive.ObjectID `bson:"to_id"`
		Ciphertext []byte             `bson:"ciphertext"`
		Nonce      []byte             `bson:"nonce"`
		Signature  []byte             `bson:"signature"`
		Counter    int64              `bson:"counter"`
		Delivered  bool               `bson:"delivered"`
		CreatedAt  time.Time          `bson:"created_at"`
	}
)
