package chat

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Conn is a live connection the core can push frames to.
// Implementations must be comparable (pointer types) because they are used as map keys.
type Conn interface {
	// ID is a per-connection identifier used in logs.
	ID() string

	// Deliver queues evt for the client without blocking.
	Deliver(evt Outbound) error

	// Close terminates the connection with a WebSocket close code and reason.
	Close(code int, reason string)
}

// Registry maps user identities to their single active connection.
//
// A new binding for an already-bound user replaces the old one: the last
// connection wins. A reverse index makes Unbind O(1).
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Conn
	byConn map[Conn]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]Conn),
		byConn: make(map[Conn]string),
	}
}

// Bind associates userID with c and returns the connection it displaced, if any.
// If c was bound to a different identity before, that binding is dropped.
func (r *Registry) Bind(userID string, c Conn) (replaced Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prevUser, ok := r.byConn[c]; ok && prevUser != userID {
		if r.byUser[prevUser] == c {
			delete(r.byUser, prevUser)
		}
	}

	if old, ok := r.byUser[userID]; ok && old != c {
		delete(r.byConn, old)
		replaced = old
	}

	r.byUser[userID] = c
	r.byConn[c] = userID

	return replaced
}

// Unbind removes the binding held by c. It reports the identity that was
// unbound, or false when c held no binding.
func (r *Registry) Unbind(c Conn) (userID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok = r.byConn[c]
	if !ok {
		return "", false
	}

	delete(r.byConn, c)
	if r.byUser[userID] == c {
		delete(r.byUser, userID)
	}

	return userID, true
}

// Resolve returns the connection bound to userID.
func (r *Registry) Resolve(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byUser[userID]
	return c, ok
}

// UserOf returns the identity bound to c.
func (r *Registry) UserOf(c Conn) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.byConn[c]
	return userID, ok
}

// Snapshot returns the sorted set of bound user identities.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	ids := lo.Keys(r.byUser)
	r.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
