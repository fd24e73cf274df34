package hub

import (
	"chatline-server/internal/domain"
	"errors"
	"sync"
	"testing"
)

// TestRegistryCapEnforcement verifies that a user may hold at most the
// configured number of connections and that the sixth registration is
// rejected without disturbing the first five.
func TestRegistryCapEnforcement(t *testing.T) {
	registry := NewRegistry(5)
	user := testUser(t, "alice")

	for i := 0; i < 5; i++ {
		if _, err := registry.Register(newTestClient(nil, user)); err != nil {
			t.Fatalf("connection %d rejected unexpectedly: %v", i+1, err)
		}
	}

	_, err := registry.Register(newTestClient(nil, user))
	if !errors.Is(err, domain.ErrMaxConnections) {
		t.Fatalf("expected ErrMaxConnections, got %v", err)
	}
	if got := registry.CountFor(user.ID); got != 5 {
		t.Fatalf("expected 5 registered connections, got %d", got)
	}
}

// TestRegistryCapEnforcementConcurrent races six registrations for the same
// user and expects exactly one rejection.
func TestRegistryCapEnforcementConcurrent(t *testing.T) {
	registry := NewRegistry(5)
	user := testUser(t, "alice")

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.Register(newTestClient(nil, user))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	rejected := 0
	for err := range errs {
		if errors.Is(err, domain.ErrMaxConnections) {
			rejected++
		} else if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if rejected != 1 {
		t.Fatalf("expected exactly 1 rejection, got %d", rejected)
	}
	if got := registry.CountFor(user.ID); got != 5 {
		t.Fatalf("expected 5 registered connections, got %d", got)
	}
}

// TestRegistryOnlineOfflineEdges verifies the became-online and
// became-offline signals fire only on the 0→1 and 1→0 transitions.
func TestRegistryOnlineOfflineEdges(t *testing.T) {
	registry := NewRegistry(5)
	user := testUser(t, "alice")

	first := newTestClient(nil, user)
	second := newTestClient(nil, user)

	becameOnline, err := registry.Register(first)
	if err != nil || !becameOnline {
		t.Fatalf("first registration: becameOnline=%v err=%v, want true, nil", becameOnline, err)
	}
	becameOnline, err = registry.Register(second)
	if err != nil || becameOnline {
		t.Fatalf("second registration: becameOnline=%v err=%v, want false, nil", becameOnline, err)
	}

	_, becameOffline, ok := registry.Unregister(first.SocketID)
	if !ok || becameOffline {
		t.Fatalf("first unregister: becameOffline=%v ok=%v, want false, true", becameOffline, ok)
	}
	userID, becameOffline, ok := registry.Unregister(second.SocketID)
	if !ok || !becameOffline {
		t.Fatalf("second unregister: becameOffline=%v ok=%v, want true, true", becameOffline, ok)
	}
	if userID != user.ID {
		t.Fatalf("unregister returned user %s, want %s", userID, user.ID)
	}
}

// TestRegistryUnregisterIdempotent verifies that unregistering the same
// socket twice reports not-found the second time.
func TestRegistryUnregisterIdempotent(t *testing.T) {
	registry := NewRegistry(5)
	client := newTestClient(nil, testUser(t, "alice"))

	if _, err := registry.Register(client); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, ok := registry.Unregister(client.SocketID); !ok {
		t.Fatal("first unregister reported not found")
	}
	if _, _, ok := registry.Unregister(client.SocketID); ok {
		t.Fatal("second unregister should report not found")
	}
}

// TestRegistryLookups verifies ConnectionsFor and AllConnections reflect the
// registered population.
func TestRegistryLookups(t *testing.T) {
	registry := NewRegistry(5)
	alice := testUser(t, "alice")
	bob := testUser(t, "bob")

	a1 := newTestClient(nil, alice)
	a2 := newTestClient(nil, alice)
	b1 := newTestClient(nil, bob)
	for _, c := range []*Client{a1, a2, b1} {
		if _, err := registry.Register(c); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}

	if got := len(registry.ConnectionsFor(alice.ID)); got != 2 {
		t.Fatalf("expected 2 connections for alice, got %d", got)
	}
	if got := len(registry.ConnectionsFor(bob.ID)); got != 1 {
		t.Fatalf("expected 1 connection for bob, got %d", got)
	}
	if got := len(registry.ConnectionsFor(testUser(t, "carol").ID)); got != 0 {
		t.Fatalf("expected no connections for offline user, got %d", got)
	}
	if got := len(registry.AllConnections()); got != 3 {
		t.Fatalf("expected 3 total connections, got %d", got)
	}
	if !registry.Registered(a1.SocketID) {
		t.Fatal("a1 should be registered")
	}
}
