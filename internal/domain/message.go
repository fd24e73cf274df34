package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageType identifies the payload variant carried by a ChatMessage.
type MessageType string

const (
	MessageText     MessageType = "text"
	MessageEmoji    MessageType = "emoji"
	MessageGif      MessageType = "gif"
	MessageSticker  MessageType = "sticker"
	MessageFile     MessageType = "file"
	MessageLocation MessageType = "location"
	MessageWebview  MessageType = "webview"
)

// FileAttachment is the payload variant for file messages. The file itself
// lives in external object storage; only the reference is kept here.
type FileAttachment struct {
	URL         string `bson:"url" json:"url"`
	Name        string `bson:"name" json:"name"`
	Size        int64  `bson:"size" json:"size"`
	ContentType string `bson:"content_type,omitempty" json:"contentType,omitempty"`
}

// GeoPoint is the payload variant for location messages.
type GeoPoint struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
	IsLive    bool    `bson:"is_live,omitempty" json:"isLive,omitempty"`
}

// WebviewCard is the payload variant for webview (link preview) messages.
type WebviewCard struct {
	URL         string `bson:"url" json:"url"`
	Title       string `bson:"title,omitempty" json:"title,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	ImageURL    string `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
}

// ChatMessage represents a single message, stored in MongoDB. Exactly one of
// the variant sub-documents is set depending on Type; text-like types carry
// their content in Text. Direct messages set RecipientID, group messages set
// GroupID. The two are mutually exclusive.
type ChatMessage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID string             `bson:"conversation_id" json:"conversation_id"`
	SenderID       string             `bson:"sender_id" json:"sender_id"`
	SenderUsername string             `bson:"sender_username" json:"sender_username"`
	SenderAvatar   string             `bson:"sender_avatar,omitempty" json:"sender_avatar,omitempty"`
	RecipientID    string             `bson:"recipient_id,omitempty" json:"recipient_id,omitempty"`
	GroupID        string             `bson:"group_id,omitempty" json:"group_id,omitempty"`
	Type           MessageType        `bson:"type" json:"type"`
	Text           string             `bson:"text,omitempty" json:"text,omitempty"`
	File           *FileAttachment    `bson:"file,omitempty" json:"file,omitempty"`
	Location       *GeoPoint          `bson:"location,omitempty" json:"location,omitempty"`
	Webview        *WebviewCard       `bson:"webview,omitempty" json:"webview,omitempty"`
	ReplyID        string             `bson:"reply_id,omitempty" json:"reply_id,omitempty"`
	Delivered      bool               `bson:"delivered" json:"delivered"`
	Seen           bool               `bson:"seen" json:"seen"`
	DeletedBy      []string           `bson:"deleted_by,omitempty" json:"deleted_by,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsGroup reports whether the message was addressed to a group.
func (m *ChatMessage) IsGroup() bool {
	return m.GroupID != ""
}

// DeletedFor reports whether the given user soft-deleted this message.
func (m *ChatMessage) DeletedFor(userID string) bool {
	for _, id := range m.DeletedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// DirectConversationID derives the deterministic conversation key for a pair
// of users: both ids sorted, joined with an underscore. Either ordering of
// the arguments yields the same key.
func DirectConversationID(userID1, userID2 uuid.UUID) string {
	ids := []string{userID1.String(), userID2.String()}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}
