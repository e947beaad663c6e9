package realtime

import (
	"context"
	"sync"
)

// Connection is the registry's view of one live client. The transport owns
// the underlying socket; the registry only holds a handle.
type Connection interface {
	ID() string
	// Send hands evt to the connection without blocking. Any error means the
	// connection can no longer be trusted to receive events in order.
	Send(evt Event) error
	Close()
}

// Pinger is implemented by connections that support liveness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Registry is the set of live connections. Add, remove and snapshot are
// serialized by one lock; delivery always iterates a copy taken under it.
type Registry struct {
	mu    sync.Mutex
	conns map[string]Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Connection)}
}

// Register adds c. Registering a second connection under the same id replaces
// the first one.
func (r *Registry) Register(c Connection) {
	r.mu.Lock()
	r.conns[c.ID()] = c
	r.mu.Unlock()
}

// Unregister removes c and reports whether it was present. Removing an
// unknown or already removed connection is a no-op.
func (r *Registry) Unregister(c Connection) bool {
	if c == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.conns[c.ID()]
	if !ok || cur != c {
		return false
	}
	delete(r.conns, c.ID())
	return true
}

// Snapshot returns a point-in-time copy of the live set. Later registrations
// and removals don't affect the returned slice.
func (r *Registry) Snapshot() []Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// CloseAll empties the registry and closes every connection it held.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]Connection)
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
