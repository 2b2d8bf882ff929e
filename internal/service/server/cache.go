package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"spear/internal/model"
	redisSvc "spear/internal/service/redis"
	"spear/internal/utils/log"
)

// Identities are immutable once registered, so cached entries can never go
// stale; the TTL only bounds memory.
const identityCacheTTL = 10 * time.Minute

func identityCacheKey(username string) string {
	return "identity:" + username
}

// lookupIdentity resolves a username through the Redis cache when one is
// configured, falling back to the store. Cache failures are logged and
// ignored; they never fail the request.
func (s *HttpServer) lookupIdentity(ctx context.Context, username string) (*model.Identity, error) {
	if s.redisService != nil {
		data, err := s.redisService.Get(ctx, identityCacheKey(username))
		if err == nil {
			var identity model.Identity
			if err := json.Unmarshal([]byte(data), &identity); err == nil {
				return &identity, nil
			}
		} else if !errors.Is(err, redisSvc.ErrMiss) {
			log.Debug("identity cache read failed", zap.Error(err))
		}
	}

	identity, err := s.identities.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if s.redisService != nil {
		data, err := json.Marshal(identity)
		if err == nil {
			if err := s.redisService.Set(ctx, identityCacheKey(username), data, identityCacheTTL); err != nil {
				log.Debug("identity cache write failed", zap.Error(err))
			}
		}
	}
	return identity, nil
}
