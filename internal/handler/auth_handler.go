package handler

import (
	"chatline-server/internal/domain"
	"chatline-server/internal/service"
	"encoding/json"
	"log"
	"net/http"
)

// AuthHandler serves credential issuance over HTTP: account registration and
// login, both returning a signed access token for the WebSocket handshake.
type AuthHandler struct {
	users  service.IUserService
	tokens service.ITokenService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users service.IUserService, tokens service.ITokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type credentialsInput struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Username == "" || input.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.Register(input.Username, input.Avatar, input.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	h.respondWithToken(w, http.StatusCreated, user)
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Login(input.Username, input.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	h.respondWithToken(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *domain.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		log.Printf("Could not issue token for %s: %v", user.Username, err)
		http.Error(w, "Could not issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(authResponse{User: user, Token: token})
}
