package presence

import (
	"context"
	"sync"
)

// Connection is a live push channel to one client
type Connection interface {
	ID() string
	Send(ctx context.Context, event string, payload interface{}) error
}

// Registry maps online users to their current connection. The last registration wins.
type Registry struct {
	lock         sync.RWMutex
	byUser       map[string]Connection
	byConnection map[string]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byUser:       make(map[string]Connection),
		byConnection: make(map[string]string),
	}
}

// Register binds userID to conn, replacing any earlier connection of the user
func (r *Registry) Register(userID string, conn Connection) {
	if userID == "" || conn == nil {
		return
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	// a connection joining under a new user id gives up its old binding
	if previousUser, ok := r.byConnection[conn.ID()]; ok && previousUser != userID {
		if current, ok := r.byUser[previousUser]; ok && current.ID() == conn.ID() {
			delete(r.byUser, previousUser)
		}
	}

	if previous, ok := r.byUser[userID]; ok && previous.ID() != conn.ID() {
		delete(r.byConnection, previous.ID())
	}

	r.byUser[userID] = conn
	r.byConnection[conn.ID()] = userID
}

// Unregister drops conn. A user that already reconnected keeps the newer connection.
func (r *Registry) Unregister(conn Connection) {
	if conn == nil {
		return
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	userID, ok := r.byConnection[conn.ID()]
	if !ok {
		return
	}
	delete(r.byConnection, conn.ID())

	if current, ok := r.byUser[userID]; ok && current.ID() == conn.ID() {
		delete(r.byUser, userID)
	}
}

// Lookup returns the current connection of userID
func (r *Registry) Lookup(userID string) (Connection, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	conn, ok := r.byUser[userID]
	return conn, ok
}

// Online returns the number of users with a connection
func (r *Registry) Online() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.byUser)
}
