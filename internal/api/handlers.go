package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"amc.com/dart-feedback/internal/auth"
	"amc.com/dart-feedback/internal/core"
	"amc.com/dart-feedback/internal/store"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const (
	userIDKey         contextKey = "userID"
	externalUserIDKey contextKey = "externalUserID"
	eventKey          contextKey = "event"
)

type APIHandler struct {
	userService  *core.UserService
	eventService *core.EventService
	chatService  *core.ChatService
	llm          core.Generator
	defaultModel string
}

func NewAPIHandler(us *core.UserService, es *core.EventService, cs *core.ChatService, llm core.Generator, defaultModel string) *APIHandler {
	if llm == nil {
		llm = core.NoopBackend{}
	}
	return &APIHandler{
		userService:  us,
		eventService: es,
		chatService:  cs,
		llm:          llm,
		defaultModel: defaultModel,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps service errors onto status codes. Unexpected errors are
// logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, core.ErrForbidden):
		http.Error(w, "You are not invited to this event", http.StatusForbidden)
	case errors.Is(err, core.ErrUserExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, core.ErrNoLastQuestion):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Errorf("Failed to %s: %v", action, err)
		http.Error(w, "Failed to "+action, http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func userIDFrom(r *http.Request) int64 {
	return r.Context().Value(userIDKey).(int64)
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		externalUserID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.userService.GetUserByExternalID(externalUserID)
		if err != nil {
			log.Errorf("Error in JWTAuthMiddleware for user %s: %v", externalUserID, err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}

		if user == nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, user.ID)
		ctx = context.WithValue(ctx, externalUserIDKey, user.ExternalUserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type SignupRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.userService.Signup(req.UserID, req.Password)
	if err != nil {
		writeError(w, err, "create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.UserID == "" || req.Password == "" {
		http.Error(w, "User ID and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Authenticate(req.UserID, req.Password)
	if err != nil {
		log.Errorf("Error getting user %s: %v", req.UserID, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if user == nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(user.ExternalUserID)
	if err != nil {
		log.Errorf("Error generating JWT for user %s: %v", req.UserID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "ok",
		"generative_available": h.llm.Available(),
	})
}

type ModelsResponse struct {
	Available    bool     `json:"available"`
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
}

func (h *APIHandler) ListModelsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ModelsResponse{
		Available:    h.llm.Available(),
		Models:       h.llm.ListModels(),
		DefaultModel: h.defaultModel,
	})
}
