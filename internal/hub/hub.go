package hub

import (
	"chatline-server/internal/config"
	"chatline-server/internal/domain"
	"chatline-server/internal/metrics"
	"chatline-server/internal/service"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const conversationLimit = 100

// Hub is the gateway binding inbound protocol events to the presence and
// delivery components. It holds no state of its own beyond the wiring: the
// registry owns presence, the collaborators own everything persistent.
type Hub struct {
	registry *Registry
	router   *Router
	typing   *TypingRelay
	deleter  *DeletionPropagator
	syncer   *ReconnectSync
	users    service.IUserDirectory
	messages service.IMessageStore

	pingInterval time.Duration
	pongTimeout  time.Duration
	rateBurst    int
	rateInterval time.Duration
}

// NewHub creates a new Hub.
func NewHub(
	cfg *config.Config,
	registry *Registry,
	router *Router,
	typing *TypingRelay,
	deleter *DeletionPropagator,
	syncer *ReconnectSync,
	users service.IUserDirectory,
	messages service.IMessageStore,
) *Hub {
	return &Hub{
		registry:     registry,
		router:       router,
		typing:       typing,
		deleter:      deleter,
		syncer:       syncer,
		users:        users,
		messages:     messages,
		pingInterval: cfg.PingInterval,
		pongTimeout:  cfg.PongTimeout,
		rateBurst:    cfg.RateLimitBurst,
		rateInterval: cfg.RateLimitInterval,
	}
}

// HandleNewClient registers a verified user's fresh WebSocket connection.
// At the cap the error is written straight onto the raw connection and the
// transport is closed; otherwise the pumps start, the online edge is
// persisted and broadcast, and reconnect sync flushes what the new socket
// has missed.
func (h *Hub) HandleNewClient(conn *websocket.Conn, user *domain.User) {
	ctx, cancel := context.WithCancel(context.Background())
	limit := rate.Limit(float64(h.rateBurst) / h.rateInterval.Seconds())
	client := &Client{
		SocketID: uuid.NewString(),
		UserID:   user.ID,
		Username: user.Username,
		Avatar:   user.Avatar,
		Hub:      h,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		limiter:  rate.NewLimiter(limit, h.rateBurst),
		ctx:      ctx,
		cancel:   cancel,
	}

	becameOnline, err := h.registry.Register(client)
	if err != nil {
		// Pumps are not running yet, so write the rejection directly.
		payload, _ := json.Marshal(domain.WebSocketMessage{
			Type:    domain.EventError,
			Payload: domain.SystemPayload{Content: err.Error(), Timestamp: time.Now()},
		})
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.TextMessage, payload)
		conn.Close()
		cancel()
		return
	}

	metrics.ActiveConnections.Inc()
	go client.writePump()
	go client.readPump()

	if becameOnline {
		metrics.OnlineUsers.Inc()
		if err := h.users.SetOnline(user.ID, true); err != nil {
			log.Printf("Could not persist online=true for %s: %v", user.Username, err)
		}
	}

	h.syncer.Run(ctx, client)

	if becameOnline {
		h.broadcastPresence()
	}
}

// Disconnect tears down a connection. It is idempotent: the registry reports
// whether the socket was still registered, so invoking it twice for the same
// socket is safe.
func (h *Hub) Disconnect(client *Client) {
	userID, becameOffline, ok := h.registry.Unregister(client.SocketID)
	if !ok {
		return
	}
	client.cancel()
	metrics.ActiveConnections.Dec()

	if becameOffline {
		metrics.OnlineUsers.Dec()
		if err := h.users.SetOnline(userID, false); err != nil {
			log.Printf("Could not persist online=false for %s: %v", client.Username, err)
		}
		h.broadcastPresence()
	}
}

// Dispatch routes one inbound event. It runs on the connection's own read
// goroutine, so events from a single connection are handled one at a time
// in arrival order.
func (h *Hub) Dispatch(client *Client, req domain.WebSocketMessage) {
	switch req.Type {
	case domain.EventTyping:
		h.handleTyping(client, req)
	case domain.EventMessage:
		h.handleMessage(client, req)
	case domain.EventLocation:
		h.handleLocation(client, req)
	case domain.EventWebview:
		h.handleWebview(client, req)
	case domain.EventGetConversation:
		h.handleGetConversation(client, req)
	case domain.EventGetGroupConversation:
		h.handleGetGroupConversation(client, req)
	case domain.EventDeleteMessage:
		h.handleDeleteMessage(client, req)
	case domain.EventHeartbeat:
		// Application-level liveness acknowledgment only. Transport
		// liveness is the ping/pong deadline in the pumps.
	default:
		client.sendError(fmt.Sprintf("Unknown event type: %s", req.Type))
	}
}

func (h *Hub) handleTyping(client *Client, req domain.WebSocketMessage) {
	var payload domain.TypingPayload
	if err := parsePayload(req.Payload, &payload); err != nil {
		return
	}
	to, err := uuid.Parse(payload.To)
	if err != nil {
		return
	}
	h.typing.Relay(client, to, payload.Typing)
}

func (h *Hub) handleMessage(client *Client, req domain.WebSocketMessage) {
	var payload domain.SendMessagePayload
	if err := parsePayload(req.Payload, &payload); err != nil {
		client.sendError("Invalid message payload.")
		return
	}
	if err := validateSendMessage(&payload); err != nil {
		client.sendError(err.Error())
		return
	}

	msg := newChatMessage(client, payload.To, payload.GroupID)
	msg.Type = domain.MessageType(payload.Type)
	if msg.Type == "" {
		msg.Type = domain.MessageText
	}
	msg.Text = payload.Text
	msg.ReplyID = payload.ReplyID
	switch msg.Type {
	case domain.MessageFile:
		msg.File = &domain.FileAttachment{
			URL:         payload.FileURL,
			Name:        payload.FileName,
			Size:        payload.FileSize,
			ContentType: payload.FileType,
		}
	case domain.MessageGif, domain.MessageSticker:
		// The URL is the content; clients send it in either field.
		if msg.Text == "" {
			msg.Text = payload.FileURL
		}
	}

	h.persistAndDispatch(client, msg)
}

func (h *Hub) handleLocation(client *Client, req domain.WebSocketMessage) {
	var payload domain.SendLocationPayload
	if err := parsePayload(req.Payload, &payload); err != nil {
		client.sendError("Invalid location payload.")
		return
	}
	if err := validateLocation(&payload); err != nil {
		client.sendError(err.Error())
		return
	}

	msg := newChatMessage(client, payload.To, payload.GroupID)
	msg.Type = domain.MessageLocation
	msg.Location = &domain.GeoPoint{
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
		IsLive:    payload.IsLive,
	}

	h.persistAndDispatch(client, msg)
}

func (h *Hub) handleWebview(client *Client, req domain.WebSocketMessage) {
	var payload domain.SendWebviewPayload
	if err := parsePayload(req.Payload, &payload); err != nil {
		client.sendError("Invalid webview payload.")
		return
	}
	if err := validateWebview(&payload); err != nil {
		client.sendError(err.Error())
		return
	}

	msg := newChatMessage(client, payload.To, payload.GroupID)
	msg.Type = domain.MessageWebview
	msg.Webview = &domain.WebviewCard{
		URL:         payload.URL,
		Title:       payload.Title,
		Description: payload.Description,
		ImageURL:    payload.ImageURL,
	}

	h.persistAndDispatch(client, msg)
}

// persistAndDispatch derives the conversation key, saves the message, and
// hands it to the router. Validation already passed; failures from here on
// are reported to the sender and nothing is emitted to anyone else.
func (h *Hub) persistAndDispatch(client *Client, msg *domain.ChatMessage) {
	if msg.ConversationID == "" {
		client.sendError("A recipient or group is required.")
		return
	}

	if msg.IsGroup() {
		groupID, err := uuid.Parse(msg.GroupID)
		if err != nil {
			client.sendError("Invalid group id.")
			return
		}
		isMember, err := h.router.groups.IsMember(groupID, client.UserID)
		if err != nil {
			log.Printf("Membership check failed for group %s: %v", msg.GroupID, err)
			client.sendError("Failed to send message.")
			return
		}
		if !isMember {
			client.sendError("You are not a member of this group.")
			return
		}
	}

	if err := h.messages.Save(client.ctx, msg); err != nil {
		log.Printf("Could not save message from %s: %v", client.Username, err)
		client.sendError("Failed to send message.")
		return
	}
	metrics.MessagesTotal.WithLabelValues(string(msg.Type)).Inc()

	if err := h.router.Dispatch(client.ctx, client, msg); err != nil {
		log.Printf("Dispatch failed for message %s: %v", msg.ID.Hex(), err)
	}
}

func (h *Hub) handleGetConversation(client *Client, req domain.WebSocketMessage) {
	var payload domain.GetConversationPayload
	if err := parsePayload(req.Payload, &payload); err != nil {
		client.sendError("Invalid conversation request.")
		return
	}
	withID, err := uuid.Parse(payload.WithUserID)
	if err != nil {
		client.sendError("Invalid user id.")
		return
	}

	convoID := domain.DirectConversationID(client.UserID, withID)
	uid := client.UserID.String()
	messages, err := h.messages.Conversation(client.ctx, convoID, uid, conversationLimit)
	if err != nil {
		client.sendError("Failed to load conversation.")
		return
	}

	// Reading a conversation implies the reader saw it. Best effort.
	if err := h.messages.MarkSeen(client.ctx, convoID, uid); err != nil {
		log.Printf("Could not mark conversation %s seen: %v", convoID, err)
	}

	client.send(domain.WebSocketMessage{
		Type: domain.EventConversation,
		Payload: domain.ConversationPayload{
			WithUserID: payload.WithUserID,
			Messages:   composeMessages(messages),
		},
	})
}

func (h *Hub) handleGetGroupConversation(client *Client, req domain.WebSocketMessage) {
	var payload domain.GetGroupConversationPayload
	if err := parsePayload(req.Payload, &payload); err != nil {
		client.sendError("Invalid group conversation request.")
		return
	}
	groupID, err := uuid.Parse(payload.GroupID)
	if err != nil {
		client.sendError("Invalid group id.")
		return
	}

	isMember, err := h.router.groups.IsMember(groupID, client.UserID)
	if err != nil || !isMember {
		client.sendError("You are not a member of this group.")
		return
	}

	messages, err := h.messages.Conversation(client.ctx, payload.GroupID, client.UserID.String(), conversationLimit)
	if err != nil {
		client.sendError("Failed to load group conversation.")
		return
	}

	client.send(domain.WebSocketMessage{
		Type: domain.EventGroupConversation,
		Payload: domain.ConversationPayload{
			GroupID:  payload.GroupID,
			Messages: composeMessages(messages),
		},
	})
}

func (h *Hub) handleDeleteMessage(client *Client, req domain.WebSocketMessage) {
	var payload domain.DeleteMessagePayload
	if err := parsePayload(req.Payload, &payload); err != nil {
		client.sendError("Invalid delete request.")
		return
	}

	err := h.deleter.Delete(client.ctx, client, payload.ID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		client.sendError("Message not found.")
	case errors.Is(err, domain.ErrForbidden):
		client.sendError("You cannot delete this message.")
	default:
		log.Printf("Delete of message %s by %s failed: %v", payload.ID, client.Username, err)
		client.sendError("Failed to delete message.")
	}
}

// broadcastPresence pushes the full presence-annotated user list to every
// live connection. Best effort: a directory failure is logged, never
// propagated to the operation that triggered the broadcast.
func (h *Hub) broadcastPresence() {
	users, err := h.users.ListAll()
	if err != nil {
		log.Printf("Could not load user list for presence broadcast: %v", err)
		return
	}

	entries := make([]domain.UserPresence, len(users))
	for i, u := range users {
		entries[i] = domain.UserPresence{
			ID:       u.ID.String(),
			Username: u.Username,
			Avatar:   u.Avatar,
			Online:   u.Online,
		}
	}
	msg := domain.WebSocketMessage{Type: domain.EventUsersUpdated, Payload: entries}

	for _, client := range h.registry.AllConnections() {
		client.send(msg)
	}
}

// newChatMessage seeds a ChatMessage with addressing and the sender snapshot.
// The conversation key is the sorted user pair for direct messages and the
// group id for group messages.
func newChatMessage(client *Client, to, groupID string) *domain.ChatMessage {
	msg := &domain.ChatMessage{
		SenderID:       client.UserID.String(),
		SenderUsername: client.Username,
		SenderAvatar:   client.Avatar,
		CreatedAt:      time.Now(),
	}
	if groupID != "" {
		msg.GroupID = groupID
		msg.ConversationID = groupID
		return msg
	}
	recipient, err := uuid.Parse(to)
	if err != nil {
		return msg
	}
	msg.RecipientID = recipient.String()
	msg.ConversationID = domain.DirectConversationID(client.UserID, recipient)
	return msg
}

// parsePayload re-marshals an envelope payload into its concrete type.
func parsePayload(payload interface{}, result interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return errors.New("failed to marshal payload")
	}
	return json.Unmarshal(payloadBytes, result)
}
