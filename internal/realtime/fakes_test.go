package realtime

import (
	"context"
	"errors"
	"sync"
)

// recordingConn is an in-memory Connection used to observe delivery.
type recordingConn struct {
	id      string
	mu      sync.Mutex
	events  []Event
	failErr error
	closed  bool
}

func newRecordingConn(id string) *recordingConn { return &recordingConn{id: id} }

func (c *recordingConn) ID() string { return c.id }

func (c *recordingConn) Send(evt Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.failErr != nil {
		return c.failErr
	}
	c.events = append(c.events, evt)
	return nil
}

func (c *recordingConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *recordingConn) received() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func (c *recordingConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeTransport records writes and can block or fail on demand.
type fakeTransport struct {
	mu       sync.Mutex
	written  []Event
	writeErr error
	pingErr  error
	block    chan struct{}
	closedBy []CloseReason
}

var errBroken = errors.New("broken pipe")

func (t *fakeTransport) Write(ctx context.Context, evt Event) error {
	if t.block != nil {
		select {
		case <-t.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeErr != nil {
		return t.writeErr
	}
	t.written = append(t.written, evt)
	return nil
}

func (t *fakeTransport) Ping(context.Context) error { return t.pingErr }

func (t *fakeTransport) Close(reason CloseReason) error {
	t.mu.Lock()
	t.closedBy = append(t.closedBy, reason)
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) writes() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.written...)
}

func (t *fakeTransport) closes() []CloseReason {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]CloseReason(nil), t.closedBy...)
}
