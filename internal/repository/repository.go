package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"spear/internal/model"
)

type (
	// IdentityRepo stores username ↔ public-key-pair bindings.
	IdentityRepo interface {
		// Create persists a new identity, assigning its id. The uniqueness
		// check and the insert are one atomic unit; a duplicate username
		// fails with model.ErrConflict.
		Create(ctx context.Context, identity *model.Identity) error
		// GetByUsername fails with model.ErrNotFound for unknown usernames.
		GetByUsername(ctx context.Context, username string) (*model.Identity, error)
		// GetByID fails with model.ErrNotFound for unknown ids.
		GetByID(ctx context.Context, id primitive.ObjectID) (*model.Identity, error)
		// List returns all identities ordered by creation time descending.
		List(ctx context.Context) ([]*model.Identity, error)
	}

	// SessionRepo owns per-pair replay counters. The pair is canonicalized
	// from identity ids alone, so argument order never matters.
	SessionRepo interface {
		// GetOrCreate returns the session for the unordered pair (a, b),
		// creating it with zero counters and the default rotation threshold
		// if absent. Idempotent.
		GetOrCreate(ctx context.Context, a, b primitive.ObjectID) (*model.Session, error)
		// AdvanceCounter atomically stores proposed as the sender's slot
		// value. A proposed counter that does not advance strictly past the
		// stored value fails with *model.ReplayError; a missing session
		// fails with model.ErrNotFound. The read-compare-write is
		// serialized per session.
		AdvanceCounter(ctx context.Context, a, b, sender primitive.ObjectID, proposed int64) (*model.CounterResult, error)
	}

	// EnvelopeRepo is the store-and-forward mailbox. Envelopes are never
	// deleted; acknowledgment flips the delivered flag.
	EnvelopeRepo interface {
		// Deposit persists env with delivered=false and returns its id.
		Deposit(ctx context.Context, env *model.Envelope) (primitive.ObjectID, error)
		// Pending returns the undelivered envelopes addressed to toID in
		// deposit order (created_at ascending). One-shot snapshot.
		Pending(ctx context.Context, toID primitive.ObjectID) ([]*model.Envelope, error)
		// Acknowledge marks the envelope delivered. model.ErrNotFound if no
		// row matches the id.
		Acknowledge(ctx context.Context, id primitive.ObjectID) error
	}
)
