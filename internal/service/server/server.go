package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"spear/internal/model"
	"spear/internal/repository"
	redisSvc "spear/internal/service/redis"
	"spear/internal/utils/log"
)

type (
	HttpServer struct {
		identities repository.IdentityRepo
		sessions   repository.SessionRepo
		envelopes  repository.EnvelopeRepo

		// redisService is optional; when nil, identity lookups always go
		// to the store.
		redisService *redisSvc.RedisService
	}
)

func NewHttpServer(
	identities repository.IdentityRepo,
	sessions repository.SessionRepo,
	envelopes repository.EnvelopeRepo,
	redisService *redisSvc.RedisService,
) *HttpServer {
	return &HttpServer{
		identities:   identities,
		sessions:     sessions,
		envelopes:    envelopes,
		redisService: redisService,
	}
}

func (s *HttpServer) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/register", s.RegisterUser()).Methods(http.MethodPost)
	r.HandleFunc("/api/users", s.ListUsers()).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{username}", s.GetUser()).Methods(http.MethodGet)

	r.HandleFunc("/api/sessions", s.GetOrCreateSession()).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/counter", s.UpdateCounter()).Methods(http.MethodPost)

	r.HandleFunc("/api/messages", s.SendMessage()).Methods(http.MethodPost)
	r.HandleFunc("/api/messages/{username}", s.GetMessages()).Methods(http.MethodGet)
	r.HandleFunc("/api/messages/{id}", s.AcknowledgeMessage()).Methods(http.MethodDelete)

	r.HandleFunc("/health", s.Health()).Methods(http.MethodGet)
	return r
}

func (s *HttpServer) Run(addr string) error {
	log.Info("server listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Router())
}

func (s *HttpServer) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// respondError maps component errors onto the HTTP taxonomy. Unclassified
// errors become a generic 500; detail stays in the server log.
func respondError(w http.ResponseWriter, err error) {
	var replay *model.ReplayError
	switch {
	case errors.As(err, &replay):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:           "Replay attack detected",
			ExpectedCounter: &replay.Expected,
			ReceivedCounter: &replay.Received,
		})
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, model.ErrConflict):
		writeError(w, http.StatusConflict, "Username already exists")
	case errors.Is(err, model.ErrInvalidKeySize):
		writeError(w, http.StatusBadRequest, "Invalid key sizes")
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, "Missing required fields")
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.ErrValidation
	}
	return nil
}
