package server

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"spear/internal/model"
	"spear/internal/utils/log"
)

func (s *HttpServer) RegisterUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req model.RegisterRequest
		if err := decodeBody(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if req.Username == "" || req.PublicKey == "" || req.SigningPublicKey == "" {
			writeError(w, http.StatusBadRequest, "Missing required fields")
			return
		}

		publicKey, err := base64.StdEncoding.DecodeString(req.PublicKey)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid key encoding")
			return
		}
		signingPublicKey, err := base64.StdEncoding.DecodeString(req.SigningPublicKey)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid key encoding")
			return
		}
		if len(publicKey) != model.KeySize || len(signingPublicKey) != model.KeySize {
			writeError(w, http.StatusBadRequest, "Invalid key sizes")
			return
		}

		identity := &model.Identity{
			Username:         req.Username,
			PublicKey:        publicKey,
			SigningPublicKey: signingPublicKey,
		}
		if err := s.identities.Create(ctx, identity); err != nil {
			respondError(w, err)
			return
		}

		log.Info("user registered", zap.String("username", identity.Username))
		writeJSON(w, http.StatusCreated, model.RegisterResponse{
			ID:       identity.ID.Hex(),
			Username: identity.Username,
			Message:  "User registered successfully",
		})
	}
}

func (s *HttpServer) GetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		username := mux.Vars(r)["username"]

		identity, err := s.lookupIdentity(ctx, username)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				writeError(w, http.StatusNotFound, "User not found")
				return
			}
			respondError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, model.UserResponse{
			ID:               identity.ID.Hex(),
			Username:         identity.Username,
			PublicKey:        base64.StdEncoding.EncodeToString(identity.PublicKey),
			SigningPublicKey: base64.StdEncoding.EncodeToString(identity.SigningPublicKey),
			CreatedAt:        identity.CreatedAt.Format(time.RFC3339),
		})
	}
}

func (s *HttpServer) ListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		identities, err := s.identities.List(ctx)
		if err != nil {
			respondError(w, err)
			return
		}

		users := make([]model.UserSummary, 0, len(identities))
		for _, identity := range identities {
			users = append(users, model.UserSummary{
				ID:        identity.ID.Hex(),
				Username:  identity.Username,
				CreatedAt: identity.CreatedAt.Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, model.UserListResponse{Users: users})
	}
}
