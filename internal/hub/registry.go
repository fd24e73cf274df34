package hub

import (
	"chatline-server/internal/domain"
	"sync"

	"github.com/google/uuid"
)

// DefaultMaxConnections caps how many simultaneous sockets one user may hold.
const DefaultMaxConnections = 5

// Registry is the authoritative, single-process map from user ID to that
// user's live connections. It keeps a reverse socket index so disconnects
// resolve in O(1) instead of scanning every entry. All operations are atomic
// single calls; callers never get to iterate and mutate at the same time,
// and no I/O ever happens under the lock.
type Registry struct {
	mu       sync.RWMutex
	cap      int
	byUser   map[uuid.UUID][]*Client
	bySocket map[string]uuid.UUID
}

// NewRegistry creates a Registry with the given per-user connection cap.
// Non-positive caps fall back to DefaultMaxConnections.
func NewRegistry(cap int) *Registry {
	if cap <= 0 {
		cap = DefaultMaxConnections
	}
	return &Registry{
		cap:      cap,
		byUser:   make(map[uuid.UUID][]*Client),
		bySocket: make(map[string]uuid.UUID),
	}
}

// Register adds a connection for its user. It returns ErrMaxConnections when
// the user is already at the cap; the caller must then close the transport.
// becameOnline is true exactly when this is the user's first connection, so
// the caller persists online=true and broadcasts presence once.
func (r *Registry) Register(client *Client) (becameOnline bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := r.byUser[client.UserID]
	if len(conns) >= r.cap {
		return false, domain.ErrMaxConnections
	}

	becameOnline = len(conns) == 0
	r.byUser[client.UserID] = append(conns, client)
	r.bySocket[client.SocketID] = client.UserID
	return becameOnline, nil
}

// Unregister removes a connection by socket ID. It is idempotent: a second
// call for the same socket reports ok=false. becameOffline is true exactly
// when the user's entry emptied, so the caller persists online=false and
// broadcasts presence once.
func (r *Registry) Unregister(socketID string) (userID uuid.UUID, becameOffline bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok = r.bySocket[socketID]
	if !ok {
		return uuid.Nil, false, false
	}
	delete(r.bySocket, socketID)

	conns := r.byUser[userID]
	for i, c := range conns {
		if c.SocketID == socketID {
			conns = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(conns) == 0 {
		delete(r.byUser, userID)
		return userID, true, true
	}
	r.byUser[userID] = conns
	return userID, false, true
}

// ConnectionsFor returns a copy of the user's live connections; empty means
// offline.
func (r *Registry) ConnectionsFor(userID uuid.UUID) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byUser[userID]
	out := make([]*Client, len(conns))
	copy(out, conns)
	return out
}

// AllConnections returns a copy of every live connection.
func (r *Registry) AllConnections() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.bySocket))
	for _, conns := range r.byUser {
		out = append(out, conns...)
	}
	return out
}

// Registered reports whether a socket is currently registered.
func (r *Registry) Registered(socketID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySocket[socketID]
	return ok
}

// CountFor returns the number of live connections for a user.
func (r *Registry) CountFor(userID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}
