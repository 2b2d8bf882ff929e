package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultRotationThreshold is the counter value at which a session is
// flagged for key rotation.
const DefaultRotationThreshold int64 = 100

type (
	// Session holds the replay-protection state for one unordered pair of
	// identities. LowID and HighID are the canonical pair ordering; each
	// side owns one monotonically increasing counter slot.
	Session struct {
		ID                primitive.ObjectID `bson:"_id,omitempty"`
		LowID             primitive.ObjectID `bson:"low_id"`
		HighID            primitive.ObjectID `bson:"high_id"`
		CounterForLow     int64              `bson:"counter_for_low"`
		CounterForHigh    int64              `bson:"counter_for_high"`
		RotationThreshold int64              `bson:"rotation_threshold"`
		CreatedAt         time.Time          `bson:"created_at"`
		LastRotatedAt     time.Time          `bson:"last_rotated_at"`
	}

	// CounterResult is the outcome of an accepted counter advance.
	CounterResult struct {
		Counter           int64
		NeedsRotation     bool
		RotationThreshold int64
	}
)

// CounterFor returns the stored counter for the slot owned by sender.
func (s *Session) CounterFor(sender primitive.ObjectID) int64 {
	if sender == s.LowID {
		return s.CounterForLow
	}
	return s.CounterForHigh
}
