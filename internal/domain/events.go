package domain

import "time"

// WebSocketMessage is the standard envelope for every frame exchanged with a
// client, inbound and outbound.
type WebSocketMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Inbound event types.
const (
	EventTyping               = "typing"
	EventMessage              = "message"
	EventLocation             = "location"
	EventWebview              = "webview"
	EventGetConversation      = "get:conversation"
	EventGetGroupConversation = "get:group:conversation"
	EventDeleteMessage        = "delete:message"
	EventHeartbeat            = "heartbeat"
)

// Outbound event types.
const (
	EventUsersUpdated      = "users:updated"
	EventMessagesPending   = "messages:pending"
	EventMessageDeleted    = "message:deleted"
	EventConversation      = "conversation"
	EventGroupConversation = "group:conversation"
	EventError             = "error"
)

// TypingPayload is the payload of an inbound 'typing' event.
type TypingPayload struct {
	To     string `json:"to" validate:"required,uuid"`
	Typing bool   `json:"typing"`
}

// SendMessagePayload is the payload of an inbound 'message' event. Exactly
// one of To and GroupID must be set.
type SendMessagePayload struct {
	To       string `json:"to,omitempty"`
	GroupID  string `json:"groupId,omitempty"`
	Type     string `json:"type,omitempty"`
	Text     string `json:"text,omitempty"`
	FileURL  string `json:"fileUrl,omitempty" validate:"omitempty,url"`
	FileName string `json:"fileName,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
	FileType string `json:"fileType,omitempty"`
	ReplyID  string `json:"replyId,omitempty"`
}

// SendLocationPayload is the payload of an inbound 'location' event.
type SendLocationPayload struct {
	To        string  `json:"to,omitempty"`
	GroupID   string  `json:"groupId,omitempty"`
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	IsLive    bool    `json:"isLive,omitempty"`
}

// SendWebviewPayload is the payload of an inbound 'webview' event.
type SendWebviewPayload struct {
	To          string `json:"to,omitempty"`
	GroupID     string `json:"groupId,omitempty"`
	URL         string `json:"url" validate:"required,url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// GetConversationPayload requests the direct conversation with another user.
type GetConversationPayload struct {
	WithUserID string `json:"withUserId" validate:"required"`
}

// GetGroupConversationPayload requests a group's conversation.
type GetGroupConversationPayload struct {
	GroupID string `json:"groupId" validate:"required"`
}

// DeleteMessagePayload requests deletion of a single message.
type DeleteMessagePayload struct {
	ID string `json:"id" validate:"required"`
}

// HeartbeatPayload is a liveness acknowledgment; it carries no effect beyond
// refreshing the transport's read deadline.
type HeartbeatPayload struct {
	UserID string `json:"userId,omitempty"`
}

// MessageEventPayload is the composed outbound shape of a chat message,
// denormalized with the sender's username and avatar at send time.
type MessageEventPayload struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId"`
	From           string          `json:"from"`
	To             string          `json:"to,omitempty"`
	GroupID        string          `json:"groupId,omitempty"`
	Type           MessageType     `json:"type"`
	Text           string          `json:"text,omitempty"`
	File           *FileAttachment `json:"file,omitempty"`
	Location       *GeoPoint       `json:"location,omitempty"`
	Webview        *WebviewCard    `json:"webview,omitempty"`
	ReplyID        string          `json:"replyId,omitempty"`
	SenderUsername string          `json:"senderUsername"`
	SenderAvatar   string          `json:"senderAvatar,omitempty"`
	Delivered      bool            `json:"delivered"`
	Seen           bool            `json:"seen"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// TypingEventPayload is the outbound shape of a relayed typing indicator.
type TypingEventPayload struct {
	From     string `json:"from"`
	Username string `json:"username"`
	Typing   bool   `json:"typing"`
}

// UserPresence is one entry of a 'users:updated' broadcast.
type UserPresence struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Online   bool   `json:"online"`
}

// PendingMessagesPayload is the reconnect batch of undelivered messages.
type PendingMessagesPayload struct {
	Messages []MessageEventPayload `json:"messages"`
}

// MessageDeletedPayload announces a message deletion to affected clients.
type MessageDeletedPayload struct {
	ID             string    `json:"id"`
	DeletedBy      string    `json:"deletedBy"`
	ConversationID string    `json:"conversationId"`
	DeletedAt      time.Time `json:"deletedAt"`
}

// ConversationPayload is the reply to a 'get:conversation' request.
type ConversationPayload struct {
	WithUserID string                `json:"withUserId,omitempty"`
	GroupID    string                `json:"groupId,omitempty"`
	Messages   []MessageEventPayload `json:"messages"`
}

// SystemPayload is the payload of an 'error' event.
type SystemPayload struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
