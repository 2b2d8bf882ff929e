package server

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"spear/internal/model"
	"spear/internal/utils/log"
)

func (s *HttpServer) SendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req model.SendMessageRequest
		if err := decodeBody(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if req.FromUsername == "" || req.ToUsername == "" || req.EncryptedContent == "" ||
			req.Nonce == "" || req.Signature == "" || req.Counter == nil {
			writeError(w, http.StatusBadRequest, "Missing required fields")
			return
		}

		from, err := s.lookupIdentity(ctx, req.FromUsername)
		if err != nil {
			respondUserLookup(w, err)
			return
		}
		to, err := s.lookupIdentity(ctx, req.ToUsername)
		if err != nil {
			respondUserLookup(w, err)
			return
		}

		ciphertext, err := base64.StdEncoding.DecodeString(req.EncryptedContent)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid message encoding")
			return
		}
		nonce, err := base64.StdEncoding.DecodeString(req.Nonce)
		if err != nil || len(nonce) != model.NonceSize {
			writeError(w, http.StatusBadRequest, "Invalid nonce")
			return
		}
		sig, err := base64.StdEncoding.DecodeString(req.Signature)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid signature encoding")
			return
		}

		// The submitted counter is stored with the envelope but is not
		// checked against the session ledger here; the two components stay
		// independent.
		env := &model.Envelope{
			FromID:     from.ID,
			ToID:       to.ID,
			Ciphertext: ciphertext,
			Nonce:      nonce,
			Signature:  sig,
			Counter:    *req.Counter,
		}
		id, err := s.envelopes.Deposit(ctx, env)
		if err != nil {
			respondError(w, err)
			return
		}

		log.Info("message deposited",
			zap.String("from", req.FromUsername),
			zap.String("to", req.ToUsername),
			zap.String("id", id.Hex()))
		writeJSON(w, http.StatusCreated, model.SendMessageResponse{
			ID:      id.Hex(),
			Message: "Message sent successfully",
		})
	}
}

func (s *HttpServer) GetMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		username := mux.Vars(r)["username"]

		identity, err := s.lookupIdentity(ctx, username)
		if err != nil {
			respondUserLookup(w, err)
			return
		}

		envelopes, err := s.envelopes.Pending(ctx, identity.ID)
		if err != nil {
			respondError(w, err)
			return
		}

		messages := make([]model.MessageView, 0, len(envelopes))
		for _, env := range envelopes {
			sender, err := s.identities.GetByID(ctx, env.FromID)
			if err != nil {
				respondError(w, err)
				return
			}
			messages = append(messages, model.MessageView{
				ID:               env.ID.Hex(),
				FromUsername:     sender.Username,
				EncryptedContent: base64.StdEncoding.EncodeToString(env.Ciphertext),
				Nonce:            base64.StdEncoding.EncodeToString(env.Nonce),
				Signature:        base64.StdEncoding.EncodeToString(env.Signature),
				Counter:          env.Counter,
				CreatedAt:        env.CreatedAt.Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, model.MessageListResponse{Messages: messages})
	}
}

func (s *HttpServer) AcknowledgeMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
		if err != nil {
			writeError(w, http.StatusNotFound, "Message not found")
			return
		}

		if err := s.envelopes.Acknowledge(ctx, id); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Message not found")
				return
			}
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, model.AckResponse{Message: "Message acknowledged"})
	}
}
