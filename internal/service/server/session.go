package server

import (
	"errors"
	"net/http"

	"spear/internal/model"
)

func (s *HttpServer) GetOrCreateSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req model.SessionRequest
		if err := decodeBody(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if req.Username1 == "" || req.Username2 == "" {
			writeError(w, http.StatusBadRequest, "Missing required fields")
			return
		}

		user1, err := s.lookupIdentity(ctx, req.Username1)
		if err != nil {
			respondUserLookup(w, err)
			return
		}
		user2, err := s.lookupIdentity(ctx, req.Username2)
		if err != nil {
			respondUserLookup(w, err)
			return
		}

		session, err := s.sessions.GetOrCreate(ctx, user1.ID, user2.ID)
		if err != nil {
			respondError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, model.SessionResponse{
			SessionID:         session.ID.Hex(),
			CounterForLow:     session.CounterForLow,
			CounterForHigh:    session.CounterForHigh,
			RotationThreshold: session.RotationThreshold,
			NeedsRotation:     false,
		})
	}
}

func (s *HttpServer) UpdateCounter() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req model.CounterRequest
		if err := decodeBody(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if req.Username1 == "" || req.Username2 == "" || req.Counter == nil || req.FromUser == "" {
			writeError(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		if req.FromUser != req.Username1 && req.FromUser != req.Username2 {
			writeError(w, http.StatusBadRequest, "fromUser must be one of the session participants")
			return
		}

		user1, err := s.lookupIdentity(ctx, req.Username1)
		if err != nil {
			respondUserLookup(w, err)
			return
		}
		user2, err := s.lookupIdentity(ctx, req.Username2)
		if err != nil {
			respondUserLookup(w, err)
			return
		}

		sender := user1
		if req.FromUser == req.Username2 {
			sender = user2
		}

		result, err := s.sessions.AdvanceCounter(ctx, user1.ID, user2.ID, sender.ID, *req.Counter)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Session not found")
				return
			}
			respondError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, model.CounterResponse{
			Success:           true,
			Counter:           result.Counter,
			NeedsRotation:     result.NeedsRotation,
			RotationThreshold: result.RotationThreshold,
		})
	}
}

func respondUserLookup(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	respondError(w, err)
}
