package hub

import (
	"chatline-server/internal/domain"

	"github.com/google/uuid"
)

// TypingRelay forwards typing indicators between live connections. It is
// stateless: nothing is persisted and nothing is tracked for delivery.
type TypingRelay struct {
	registry *Registry
}

// NewTypingRelay creates a new TypingRelay.
func NewTypingRelay(registry *Registry) *TypingRelay {
	return &TypingRelay{registry: registry}
}

// Relay emits a typing event carrying the sender's identity to every
// connection of the recipient. A sender that is no longer registered or an
// offline recipient makes this a silent no-op.
func (t *TypingRelay) Relay(from *Client, to uuid.UUID, typing bool) {
	if !t.registry.Registered(from.SocketID) {
		return
	}

	msg := domain.WebSocketMessage{
		Type: domain.EventTyping,
		Payload: domain.TypingEventPayload{
			From:     from.UserID.String(),
			Username: from.Username,
			Typing:   typing,
		},
	}
	for _, conn := range t.registry.ConnectionsFor(to) {
		conn.send(msg)
	}
}
