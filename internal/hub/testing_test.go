package hub

import (
	"chatline-server/internal/config"
	"chatline-server/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"
)

// fakeMessageStore is an in-memory service.IMessageStore that preserves
// insertion order and counts mark-delivered calls.
type fakeMessageStore struct {
	mu             sync.Mutex
	messages       map[string]*domain.ChatMessage
	order          []string
	deliveredCalls int
	pendingErr     error
	deletionsErr   error
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: make(map[string]*domain.ChatMessage)}
}

func (s *fakeMessageStore) Save(_ context.Context, m *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.UpdatedAt = time.Now()
	copied := *m
	s.messages[m.ID.Hex()] = &copied
	s.order = append(s.order, m.ID.Hex())
	return nil
}

func (s *fakeMessageStore) FindByID(_ context.Context, id string) (*domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (s *fakeMessageStore) MarkDelivered(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveredCalls++
	for _, id := range ids {
		if m, ok := s.messages[id]; ok && !m.Delivered {
			m.Delivered = true
			m.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (s *fakeMessageStore) MarkSeen(_ context.Context, conversationID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.SenderID != userID {
			m.Seen = true
		}
	}
	return nil
}

func (s *fakeMessageStore) SoftDelete(_ context.Context, id, userID string) (*domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !m.DeletedFor(userID) {
		m.DeletedBy = append(m.DeletedBy, userID)
	}
	m.UpdatedAt = time.Now()
	copied := *m
	return &copied, nil
}

func (s *fakeMessageStore) HardDelete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

func (s *fakeMessageStore) PendingFor(_ context.Context, userID string, groupIDs []string) ([]*domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingErr != nil {
		return nil, s.pendingErr
	}
	var out []*domain.ChatMessage
	for _, id := range s.order {
		m, ok := s.messages[id]
		if !ok {
			continue
		}
		direct := m.RecipientID == userID
		group := containsID(groupIDs, m.GroupID) && m.SenderID != userID
		if (direct || group) && !m.Delivered && !m.DeletedFor(userID) {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeMessageStore) RecentDeletions(_ context.Context, userID string, groupIDs []string, since time.Time) ([]*domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deletionsErr != nil {
		return nil, s.deletionsErr
	}
	var out []*domain.ChatMessage
	for _, id := range s.order {
		m, ok := s.messages[id]
		if !ok {
			continue
		}
		touches := m.SenderID == userID || m.RecipientID == userID || containsID(groupIDs, m.GroupID)
		if touches && len(m.DeletedBy) > 0 && !m.UpdatedAt.Before(since) {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func containsID(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (s *fakeMessageStore) Conversation(_ context.Context, conversationID, requesterID string, limit int64) ([]*domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ChatMessage
	for _, id := range s.order {
		m, ok := s.messages[id]
		if !ok {
			continue
		}
		if m.ConversationID == conversationID && !m.DeletedFor(requesterID) {
			copied := *m
			out = append(out, &copied)
		}
	}
	if int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

func (s *fakeMessageStore) get(id string) *domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil
	}
	copied := *m
	return &copied
}

// fakeUserDirectory records SetOnline transitions per user.
type fakeUserDirectory struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*domain.User
	transitions map[uuid.UUID][]bool
}

func newFakeUserDirectory(users ...*domain.User) *fakeUserDirectory {
	d := &fakeUserDirectory{
		users:       make(map[uuid.UUID]*domain.User),
		transitions: make(map[uuid.UUID][]bool),
	}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeUserDirectory) Create(u *domain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
	return nil
}

func (d *fakeUserDirectory) FindByID(id uuid.UUID) (*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.users[id], nil
}

func (d *fakeUserDirectory) FindByUsername(username string) (*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (d *fakeUserDirectory) SetOnline(id uuid.UUID, online bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		u.Online = online
	}
	d.transitions[id] = append(d.transitions[id], online)
	return nil
}

func (d *fakeUserDirectory) ListAll() ([]*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*domain.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	return out, nil
}

func (d *fakeUserDirectory) transitionsFor(id uuid.UUID) []bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]bool, len(d.transitions[id]))
	copy(out, d.transitions[id])
	return out
}

// fakeGroupDirectory serves a static membership table.
type fakeGroupDirectory struct {
	mu      sync.Mutex
	members map[uuid.UUID][]uuid.UUID
}

func newFakeGroupDirectory() *fakeGroupDirectory {
	return &fakeGroupDirectory{members: make(map[uuid.UUID][]uuid.UUID)}
}

func (d *fakeGroupDirectory) Create(g *domain.Group) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[g.ID] = []uuid.UUID{g.OwnerID}
	return nil
}

func (d *fakeGroupDirectory) FindByID(id uuid.UUID) (*domain.Group, error) {
	return nil, errors.New("not implemented")
}

func (d *fakeGroupDirectory) AddMember(groupID, userID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[groupID] = append(d.members[groupID], userID)
	return nil
}

func (d *fakeGroupDirectory) RemoveMember(groupID, userID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	members := d.members[groupID]
	for i, id := range members {
		if id == userID {
			d.members[groupID] = append(members[:i], members[i+1:]...)
			break
		}
	}
	return nil
}

func (d *fakeGroupDirectory) GroupIDsFor(userID uuid.UUID) ([]uuid.UUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []uuid.UUID
	for groupID, members := range d.members {
		for _, id := range members {
			if id == userID {
				out = append(out, groupID)
				break
			}
		}
	}
	return out, nil
}

func (d *fakeGroupDirectory) MemberIDs(groupID uuid.UUID) ([]uuid.UUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]uuid.UUID, len(d.members[groupID]))
	copy(out, d.members[groupID])
	return out, nil
}

func (d *fakeGroupDirectory) IsMember(groupID, userID uuid.UUID) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range d.members[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func testConfig() *config.Config {
	return &config.Config{
		MaxConnectionsPerUser: 5,
		PingInterval:          25 * time.Second,
		PongTimeout:           60 * time.Second,
		RateLimitBurst:        100,
		RateLimitInterval:     time.Second,
		DeletionReplayWindow:  24 * time.Hour,
	}
}

// newTestClient builds a Client with a buffered send channel and no real
// transport; tests drain c.Send directly.
func newTestClient(h *Hub, user *domain.User) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		SocketID: uuid.NewString(),
		UserID:   user.ID,
		Username: user.Username,
		Avatar:   user.Avatar,
		Hub:      h,
		Send:     make(chan []byte, 64),
		limiter:  rate.NewLimiter(rate.Inf, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// newTestHub wires a Hub with in-memory fakes for every collaborator.
func newTestHub(t *testing.T, users ...*domain.User) (*Hub, *fakeMessageStore, *fakeUserDirectory, *fakeGroupDirectory) {
	t.Helper()
	cfg := testConfig()
	store := newFakeMessageStore()
	dir := newFakeUserDirectory(users...)
	groups := newFakeGroupDirectory()
	registry := NewRegistry(cfg.MaxConnectionsPerUser)
	router := NewRouter(registry, store, groups)
	h := NewHub(cfg, registry, router,
		NewTypingRelay(registry),
		NewDeletionPropagator(registry, store, groups),
		NewReconnectSync(store, groups, cfg),
		dir, store)
	return h, store, dir, groups
}

// payloadAs decodes a drained event payload into a concrete type.
func payloadAs(t *testing.T, payload interface{}, result interface{}) {
	t.Helper()
	if err := parsePayload(payload, result); err != nil {
		t.Fatalf("could not decode payload: %v", err)
	}
}

func testUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username, "", "secret-pass")
	if err != nil {
		t.Fatalf("NewUser(%s) failed: %v", username, err)
	}
	return user
}

// drainEvents decodes every frame currently buffered on a client.
func drainEvents(t *testing.T, c *Client) []domain.WebSocketMessage {
	t.Helper()
	var out []domain.WebSocketMessage
	for {
		select {
		case raw := <-c.Send:
			var msg domain.WebSocketMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("could not decode frame: %v", err)
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func eventTypes(events []domain.WebSocketMessage) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
