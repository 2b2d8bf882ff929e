package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// KeySize is the length of both the X25519 encryption public key and
	// the Ed25519 signing public key.
	KeySize = 32
	// NonceSize is the XChaCha20-Poly1305 nonce length.
	NonceSize = 24
)

type (
	// Identity binds a username to its public key pair. Created once at
	// registration, never mutated or deleted.
	Identity struct {
		ID               primitive.ObjectID `bson:"_id,omitempty"`
		Username         string             `bson:"username"`
		PublicKey        []byte             `bson:"public_key"`
		SigningPublicKey []byte             `bson:"signing_public_key"`
		CreatedAt        time.Time          `bson:"created_at"`
	}
)

// PairKey returns the canonical (low, high) ordering of two identity ids.
// Ordering is by the ids' natural byte order, so the result does not depend
// on which side the caller puts first.
func PairKey(a, b primitive.ObjectID) (low, high primitive.ObjectID) {
	if a.Hex() < b.Hex() {
		return a, b
	}
	return b, a
}
