package memory

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"spear/internal/model"
	"spear/internal/repository"
)

type (
	// Store is a mutex-guarded in-memory backend implementing all three
	// repositories. It backs tests and the "memory" storage mode; the
	// single lock gives it the same per-operation atomicity the Mongo
	// backend gets from conditional writes and unique indexes.
	Store struct {
		mu sync.Mutex

		identities []*model.Identity
		byUsername map[string]*model.Identity

		sessions map[string]*model.Session

		envelopes []*model.Envelope
		byID      map[primitive.ObjectID]*model.Envelope
	}
)

func NewStore() *Store {
	return &Store{
		byUsername: make(map[string]*model.Identity),
		sessions:   make(map[string]*model.Session),
		byID:       make(map[primitive.ObjectID]*model.Envelope),
	}
}

func (s *Store) Create(_ context.Context, identity *model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[identity.Username]; ok {
		return model.ErrConflict
	}

	identity.ID = primitive.NewObjectID()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}

	stored := *identity
	s.identities = append(s.identities, &stored)
	s.byUsername[stored.Username] = &stored
	return nil
}

func (s *Store) GetByUsername(_ context.Context, username string) (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byUsername[username]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := *identity
	return &out, nil
}

func (s *Store) GetByID(_ context.Context, id primitive.ObjectID) (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, identity := range s.identities {
		if identity.ID == id {
			out := *identity
			return &out, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) List(_ context.Context) ([]*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Insertion order reversed: creation time descending.
	out := make([]*model.Identity, 0, len(s.identities))
	for i := len(s.identities) - 1; i >= 0; i-- {
		identity := *s.identities[i]
		out = append(out, &identity)
	}
	return out, nil
}

func pairKey(low, high primitive.ObjectID) string {
	return low.Hex() + ":" + high.Hex()
}

func (s *Store) GetOrCreate(_ context.Context, a, b primitive.ObjectID) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	low, high := model.PairKey(a, b)
	key := pairKey(low, high)

	session, ok := s.sessions[key]
	if !ok {
		now := time.Now().UTC()
		session = &model.Session{
			ID:                primitive.NewObjectID(),
			LowID:             low,
			HighID:            high,
			RotationThreshold: model.DefaultRotationThreshold,
			CreatedAt:         now,
			LastRotatedAt:     now,
		}
		s.sessions[key] = session
	}

	out := *session
	return &out, nil
}

func (s *Store) AdvanceCounter(_ context.Context, a, b, sender primitive.ObjectID, proposed int64) (*model.CounterResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	low, high := model.PairKey(a, b)
	session, ok := s.sessions[pairKey(low, high)]
	if !ok {
		return nil, model.ErrNotFound
	}

	slot := &session.CounterForHigh
	if sender == low {
		slot = &session.CounterForLow
	}

	if proposed <= *slot {
		return nil, &model.ReplayError{Expected: *slot + 1, Received: proposed}
	}
	*slot = proposed

	return &model.CounterResult{
		Counter:           proposed,
		NeedsRotation:     proposed >= session.RotationThreshold,
		RotationThreshold: session.RotationThreshold,
	}, nil
}

func (s *Store) Deposit(_ context.Context, env *model.Envelope) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env.ID = primitive.NewObjectID()
	env.Delivered = false
	if env.CreatedAt.IsZero() {
		env.CreatedAt = time.Now().UTC()
	}

	stored := *env
	s.envelopes = append(s.envelopes, &stored)
	s.byID[stored.ID] = &stored
	return stored.ID, nil
}

func (s *Store) Pending(_ context.Context, toID primitive.ObjectID) ([]*model.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Envelope
	for _, env := range s.envelopes {
		if env.ToID == toID && !env.Delivered {
			e := *env
			out = append(out, &e)
		}
	}
	return out, nil
}

func (s *Store) Acknowledge(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, ok := s.byID[id]
	if !ok {
		return model.ErrNotFound
	}
	env.Delivered = true
	return nil
}

var (
	_ repository.IdentityRepo = (*Store)(nil)
	_ repository.SessionRepo  = (*Store)(nil)
	_ repository.EnvelopeRepo = (*Store)(nil)
)
