package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrQueueFull = errors.New("realtime: outbound queue full")
	ErrClosed    = errors.New("realtime: connection closed")
)

// CloseReason tells the transport why the server is closing the channel.
type CloseReason int

const (
	CloseNormal CloseReason = iota
	CloseGoingAway
	CloseSlowConsumer
	CloseWriteFailed
)

func (r CloseReason) String() string {
	switch r {
	case CloseNormal:
		return "normal"
	case CloseGoingAway:
		return "going away"
	case CloseSlowConsumer:
		return "slow consumer"
	case CloseWriteFailed:
		return "write failed"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Transport is the wire side of a connection.
type Transport interface {
	Write(ctx context.Context, evt Event) error
	Ping(ctx context.Context) error
	Close(reason CloseReason) error
}

type ConnOptions struct {
	QueueSize    int           // outbound events buffered before the client is considered stuck
	WriteTimeout time.Duration // bound on a single frame write
	OnClose      func(c *Conn) // called once after the connection is closed
}

const (
	DefaultQueueSize    = 64
	DefaultWriteTimeout = 10 * time.Second
)

// Conn is a live connection with its own bounded FIFO and a single writer.
// Send never blocks; the writer goroutine started by Run drains the queue in
// order.
type Conn struct {
	id        string
	transport Transport
	queue     chan Event
	done      chan struct{}
	timeout   time.Duration
	onClose   func(*Conn)

	closeOnce sync.Once
	reason    atomic.Int32
	sent      atomic.Uint64
}

func NewConn(id string, t Transport, opts ConnOptions) *Conn {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	return &Conn{
		id:        id,
		transport: t,
		queue:     make(chan Event, opts.QueueSize),
		done:      make(chan struct{}),
		timeout:   opts.WriteTimeout,
		onClose:   opts.OnClose,
	}
}

func (c *Conn) ID() string { return c.id }

// Send enqueues evt. It fails with ErrClosed after Close and with
// ErrQueueFull when the client has fallen too far behind.
func (c *Conn) Send(evt Event) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.queue <- evt:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		c.reason.CompareAndSwap(int32(CloseNormal), int32(CloseSlowConsumer))
		return ErrQueueFull
	}
}

// Run writes queued events until ctx ends, the connection is closed or a
// write fails. A failed write closes the connection.
func (c *Conn) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.closeWith(CloseGoingAway)
			return ctx.Err()
		case <-c.done:
			return nil
		case evt := <-c.queue:
			if err := c.write(ctx, evt); err != nil {
				c.closeWith(CloseWriteFailed)
				return fmt.Errorf("write event: %w", err)
			}
			c.sent.Add(1)
		}
	}
}

func (c *Conn) write(ctx context.Context, evt Event) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.transport.Write(ctx, evt)
}

// Ping probes the client.
func (c *Conn) Ping(ctx context.Context) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.transport.Ping(ctx)
}

// Close shuts the connection down. Safe to call more than once and from any
// goroutine.
func (c *Conn) Close() {
	c.closeWith(CloseNormal)
}

func (c *Conn) closeWith(reason CloseReason) {
	c.reason.CompareAndSwap(int32(CloseNormal), int32(reason))
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.transport.Close(CloseReason(c.reason.Load()))
		if c.onClose != nil {
			c.onClose(c)
		}
	})
}

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Sent returns how many events were written to the wire.
func (c *Conn) Sent() uint64 { return c.sent.Load() }
