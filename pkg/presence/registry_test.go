package presence

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeConnection struct {
	id string
}

func (c *fakeConnection) ID() string {
	return c.id
}

func (c *fakeConnection) Send(context.Context, string, interface{}) error {
	return nil
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	registry := NewRegistry()
	first := &fakeConnection{id: "c1"}
	second := &fakeConnection{id: "c2"}

	registry.Register("u1", first)
	registry.Register("u1", second)

	conn, ok := registry.Lookup("u1")
	if !ok || conn.ID() != "c2" {
		t.Fatalf("Lookup() = %v, %v", conn, ok)
	}

	// the stale connection closing must not log the user out
	registry.Unregister(first)
	conn, ok = registry.Lookup("u1")
	if !ok || conn.ID() != "c2" {
		t.Fatalf("Lookup() after stale unregister = %v, %v", conn, ok)
	}

	registry.Unregister(second)
	if _, ok := registry.Lookup("u1"); ok {
		t.Error("user still online after unregister")
	}
}

func TestRegistry_UnregisterUnknown(t *testing.T) {
	registry := NewRegistry()
	registry.Register("u1", &fakeConnection{id: "c1"})

	registry.Unregister(&fakeConnection{id: "other"})
	registry.Unregister(nil)

	if registry.Online() != 1 {
		t.Errorf("Online() = %d", registry.Online())
	}
}

func TestRegistry_RejoinUnderOtherUser(t *testing.T) {
	registry := NewRegistry()
	conn := &fakeConnection{id: "c1"}

	registry.Register("u1", conn)
	registry.Register("u2", conn)

	if _, ok := registry.Lookup("u1"); ok {
		t.Error("old binding kept")
	}
	if found, ok := registry.Lookup("u2"); !ok || found != conn {
		t.Error("new binding missing")
	}

	registry.Unregister(conn)
	if registry.Online() != 0 {
		t.Errorf("Online() = %d", registry.Online())
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	registry := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := &fakeConnection{id: fmt.Sprintf("c%d", i)}
			user := fmt.Sprintf("u%d", i%5)
			registry.Register(user, conn)
			registry.Lookup(user)
			if i%2 == 0 {
				registry.Unregister(conn)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		conn, ok := registry.Lookup(fmt.Sprintf("u%d", i))
		if ok && conn == nil {
			t.Error("nil connection registered")
		}
	}
}
