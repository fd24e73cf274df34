package hub

import (
	"chatline-server/internal/domain"
	"chatline-server/internal/metrics"
	"chatline-server/internal/service"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeletionPropagator authorizes and executes delete requests, then
// broadcasts the result to every live connection of every affected user so
// all of their devices converge.
type DeletionPropagator struct {
	registry *Registry
	store    service.IMessageStore
	groups   service.IGroupDirectory
}

// NewDeletionPropagator creates a new DeletionPropagator.
func NewDeletionPropagator(registry *Registry, store service.IMessageStore, groups service.IGroupDirectory) *DeletionPropagator {
	return &DeletionPropagator{registry: registry, store: store, groups: groups}
}

// Delete applies the deletion policy for one message.
//
// Direct messages: the original sender hard-deletes the record for both
// sides; the recipient soft-deletes for themselves only. Anyone else gets
// ErrForbidden.
//
// Group messages: the sender hard-deletes for the whole group; any other
// member soft-deletes for themselves. Non-members get ErrForbidden.
//
// Either way, message:deleted is broadcast to every connection of every
// affected user, including the requester's own devices.
func (d *DeletionPropagator) Delete(ctx context.Context, requester *Client, messageID string) error {
	msg, err := d.store.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return domain.ErrNotFound
	}

	affected, err := d.authorize(requester, msg)
	if err != nil {
		return err
	}

	requesterID := requester.UserID.String()
	if requesterID == msg.SenderID {
		if err := d.store.HardDelete(ctx, messageID); err != nil {
			return err
		}
		metrics.DeletionsTotal.WithLabelValues("hard").Inc()
	} else {
		if _, err := d.store.SoftDelete(ctx, messageID, requesterID); err != nil {
			return err
		}
		metrics.DeletionsTotal.WithLabelValues("soft").Inc()
	}

	d.broadcast(affected, domain.MessageDeletedPayload{
		ID:             messageID,
		DeletedBy:      requesterID,
		ConversationID: msg.ConversationID,
		DeletedAt:      time.Now(),
	})
	return nil
}

// authorize resolves who may delete and who must hear about it.
func (d *DeletionPropagator) authorize(requester *Client, msg *domain.ChatMessage) ([]uuid.UUID, error) {
	requesterID := requester.UserID.String()

	if !msg.IsGroup() {
		if requesterID != msg.SenderID && requesterID != msg.RecipientID {
			return nil, domain.ErrForbidden
		}
		return parseIDs(msg.SenderID, msg.RecipientID), nil
	}

	groupID, err := uuid.Parse(msg.GroupID)
	if err != nil {
		return nil, fmt.Errorf("invalid group id %q: %w", msg.GroupID, err)
	}
	isMember, err := d.groups.IsMember(groupID, requester.UserID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, domain.ErrForbidden
	}
	return d.groups.MemberIDs(groupID)
}

// broadcast fans the deletion event out to all connections of the affected
// users. Requester devices are intentionally included.
func (d *DeletionPropagator) broadcast(userIDs []uuid.UUID, payload domain.MessageDeletedPayload) {
	msg := domain.WebSocketMessage{Type: domain.EventMessageDeleted, Payload: payload}
	for _, userID := range userIDs {
		for _, conn := range d.registry.ConnectionsFor(userID) {
			conn.send(msg)
		}
	}
}

func parseIDs(ids ...string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		out = append(out, parsed)
	}
	return out
}
