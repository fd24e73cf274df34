package hub

import (
	"chatline-server/internal/config"
	"chatline-server/internal/domain"
	"chatline-server/internal/metrics"
	"chatline-server/internal/service"
	"context"
	"log"
	"time"
)

// ReconnectSync catches a freshly registered connection up on everything it
// missed: undelivered messages first, then recent deletions. It runs once
// per new connection; even an additional device of an already-online user
// gets it, since the new socket itself has seen nothing.
type ReconnectSync struct {
	store  service.IMessageStore
	groups service.IGroupDirectory
	window time.Duration
}

// NewReconnectSync creates a new ReconnectSync replaying deletions from the
// configured trailing window.
func NewReconnectSync(store service.IMessageStore, groups service.IGroupDirectory, cfg *config.Config) *ReconnectSync {
	return &ReconnectSync{store: store, groups: groups, window: cfg.DeletionReplayWindow}
}

// Run flushes pending messages as a single batch and marks them delivered in
// one call, then replays recent deletion events individually. Both steps span
// the user's direct and group conversations, so membership is resolved once
// up front. Every step is best effort: a failure is logged and swallowed,
// never aborting the connection or the other steps.
func (s *ReconnectSync) Run(ctx context.Context, client *Client) {
	groupIDs := s.groupIDs(client)
	s.flushPending(ctx, client, groupIDs)
	s.replayDeletions(ctx, client, groupIDs)
}

// groupIDs resolves the user's group memberships. A directory failure
// degrades the sync to direct conversations only.
func (s *ReconnectSync) groupIDs(client *Client) []string {
	ids, err := s.groups.GroupIDsFor(client.UserID)
	if err != nil {
		log.Printf("Could not resolve groups for %s: %v", client.Username, err)
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func (s *ReconnectSync) flushPending(ctx context.Context, client *Client, groupIDs []string) {
	uid := client.UserID.String()
	pending, err := s.store.PendingFor(ctx, uid, groupIDs)
	if err != nil {
		log.Printf("Could not load pending messages for %s: %v", client.Username, err)
		return
	}
	if len(pending) == 0 {
		return
	}

	client.send(domain.WebSocketMessage{
		Type:    domain.EventMessagesPending,
		Payload: domain.PendingMessagesPayload{Messages: composeMessages(pending)},
	})

	ids := make([]string, len(pending))
	for i, msg := range pending {
		ids[i] = msg.ID.Hex()
	}
	if err := s.store.MarkDelivered(ctx, ids); err != nil {
		log.Printf("Could not mark %d pending messages delivered for %s: %v", len(ids), client.Username, err)
		return
	}
	metrics.DeliveredTotal.Add(float64(len(ids)))
}

// replayDeletions re-emits message:deleted for every deletion touching this
// user within the window. Clients de-duplicate by message id, so replaying
// events they already saw is harmless.
func (s *ReconnectSync) replayDeletions(ctx context.Context, client *Client, groupIDs []string) {
	uid := client.UserID.String()
	deleted, err := s.store.RecentDeletions(ctx, uid, groupIDs, time.Now().Add(-s.window))
	if err != nil {
		log.Printf("Could not load recent deletions for %s: %v", client.Username, err)
		return
	}

	for _, msg := range deleted {
		for _, by := range msg.DeletedBy {
			client.send(domain.WebSocketMessage{
				Type: domain.EventMessageDeleted,
				Payload: domain.MessageDeletedPayload{
					ID:             msg.ID.Hex(),
					DeletedBy:      by,
					ConversationID: msg.ConversationID,
					DeletedAt:      msg.UpdatedAt,
				},
			})
		}
	}
}
