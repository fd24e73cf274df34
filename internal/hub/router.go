package hub

import (
	"chatline-server/internal/domain"
	"chatline-server/internal/metrics"
	"chatline-server/internal/service"
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Router fans a persisted message out to every live connection of each
// recipient and marks delivery.
type Router struct {
	registry *Registry
	store    service.IMessageStore
	groups   service.IGroupDirectory
}

// NewRouter creates a new Router.
func NewRouter(registry *Registry, store service.IMessageStore, groups service.IGroupDirectory) *Router {
	return &Router{registry: registry, store: store, groups: groups}
}

// Dispatch delivers a saved message. The echo to the originating connection
// always comes first, independent of recipient presence, so the sender never
// observes its own message arriving after anything downstream.
func (r *Router) Dispatch(ctx context.Context, sender *Client, msg *domain.ChatMessage) error {
	env := domain.WebSocketMessage{Type: domain.EventMessage, Payload: composeMessage(msg)}
	sender.send(env)

	if msg.IsGroup() {
		return r.dispatchGroup(ctx, sender, msg, env)
	}
	return r.dispatchDirect(ctx, msg, env)
}

// dispatchDirect emits to every connection of the recipient so all of their
// devices converge, then marks delivery once. An offline recipient leaves
// the message pending for reconnect sync.
func (r *Router) dispatchDirect(ctx context.Context, msg *domain.ChatMessage, env domain.WebSocketMessage) error {
	recipient, err := uuid.Parse(msg.RecipientID)
	if err != nil {
		return fmt.Errorf("invalid recipient id %q: %w", msg.RecipientID, err)
	}

	conns := r.registry.ConnectionsFor(recipient)
	if len(conns) == 0 {
		return nil
	}
	for _, conn := range conns {
		conn.send(env)
	}
	return r.markDelivered(ctx, msg)
}

// dispatchGroup emits to every connection of every member, skipping only the
// originating socket (the sender's other devices still need the message),
// then marks delivery once if anyone besides the sender received it.
func (r *Router) dispatchGroup(ctx context.Context, sender *Client, msg *domain.ChatMessage, env domain.WebSocketMessage) error {
	groupID, err := uuid.Parse(msg.GroupID)
	if err != nil {
		return fmt.Errorf("invalid group id %q: %w", msg.GroupID, err)
	}

	memberIDs, err := r.groups.MemberIDs(groupID)
	if err != nil {
		return fmt.Errorf("could not resolve members of group %s: %w", msg.GroupID, err)
	}

	delivered := false
	for _, memberID := range memberIDs {
		for _, conn := range r.registry.ConnectionsFor(memberID) {
			if conn.SocketID == sender.SocketID {
				continue
			}
			conn.send(env)
			if memberID != sender.UserID {
				delivered = true
			}
		}
	}
	if !delivered {
		return nil
	}
	return r.markDelivered(ctx, msg)
}

func (r *Router) markDelivered(ctx context.Context, msg *domain.ChatMessage) error {
	if err := r.store.MarkDelivered(ctx, []string{msg.ID.Hex()}); err != nil {
		// Delivery already happened on the wire; surface for retry paths
		// but keep the log close to the failure.
		log.Printf("Could not mark message %s delivered: %v", msg.ID.Hex(), err)
		return err
	}
	metrics.DeliveredTotal.Inc()
	return nil
}

// composeMessage builds the outbound payload for one message, denormalized
// with the sender snapshot captured at save time.
func composeMessage(msg *domain.ChatMessage) domain.MessageEventPayload {
	return domain.MessageEventPayload{
		ID:             msg.ID.Hex(),
		ConversationID: msg.ConversationID,
		From:           msg.SenderID,
		To:             msg.RecipientID,
		GroupID:        msg.GroupID,
		Type:           msg.Type,
		Text:           msg.Text,
		File:           msg.File,
		Location:       msg.Location,
		Webview:        msg.Webview,
		ReplyID:        msg.ReplyID,
		SenderUsername: msg.SenderUsername,
		SenderAvatar:   msg.SenderAvatar,
		Delivered:      msg.Delivered,
		Seen:           msg.Seen,
		CreatedAt:      msg.CreatedAt,
	}
}

func composeMessages(messages []*domain.ChatMessage) []domain.MessageEventPayload {
	out := make([]domain.MessageEventPayload, len(messages))
	for i, m := range messages {
		out[i] = composeMessage(m)
	}
	return out
}
