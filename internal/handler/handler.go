package handler

import (
	"chatline-server/internal/hub"
	"chatline-server/internal/service"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// All origins allowed; the bearer token is the gate.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebsocketHandler authenticates the handshake and hands verified
// connections to the hub.
type WebsocketHandler struct {
	hub    *hub.Hub
	tokens service.ITokenService
	users  service.IUserDirectory
}

// NewWebsocketHandler creates a new WebsocketHandler.
func NewWebsocketHandler(h *hub.Hub, tokens service.ITokenService, users service.IUserDirectory) *WebsocketHandler {
	return &WebsocketHandler{hub: h, tokens: tokens, users: users}
}

// HandleConnection handles GET /ws. A missing or invalid bearer token ends
// the request before any protocol negotiation happens.
func (h *WebsocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "Missing credentials", http.StatusUnauthorized)
		return
	}

	userID, err := h.tokens.Verify(token)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	user, err := h.users.FindByID(userID)
	if err != nil || user == nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade error: %v", err)
		return
	}

	h.hub.HandleNewClient(conn, user)
}

// bearerToken extracts the credential from the Authorization header, falling
// back to the token query parameter for clients that cannot set headers on
// the WebSocket handshake.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
