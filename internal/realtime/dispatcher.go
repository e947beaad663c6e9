package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

const DefaultInboxSize = 256

// Dispatcher receives events from mutations and fans them out to a registry
// snapshot from a single goroutine. Publishing only waits for room in the
// inbox, never for clients.
type Dispatcher struct {
	registry *Registry
	logger   logger.Logger
	inbox    chan Event

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup

	published atomic.Uint64
	evicted   atomic.Uint64
}

func NewDispatcher(registry *Registry, log logger.Logger, inboxSize int) *Dispatcher {
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	return &Dispatcher{
		registry: registry,
		logger:   log,
		inbox:    make(chan Event, inboxSize),
		stopCh:   make(chan struct{}),
	}
}

// Publish hands evt to the fan-out goroutine, preserving call order. After
// Stop it drops the event.
func (d *Dispatcher) Publish(evt Event) {
	select {
	case <-d.stopCh:
		return
	default:
	}
	select {
	case d.inbox <- evt:
		d.published.Add(1)
	case <-d.stopCh:
	}
}

// Start runs the fan-out loop until ctx ends or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case evt := <-d.inbox:
				d.Broadcast(evt)
			case <-d.stopCh:
				d.drain()
				return
			case <-ctx.Done():
				d.drain()
				return
			}
		}
	}()
}

// Stop ends the loop after delivering whatever is already queued.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
	d.wg.Wait()
}

func (d *Dispatcher) drain() {
	for {
		select {
		case evt := <-d.inbox:
			d.Broadcast(evt)
		default:
			return
		}
	}
}

// Broadcast delivers evt to every connection in the current snapshot and
// returns how many accepted it. A connection that fails is unregistered and
// closed; the rest still get the event.
func (d *Dispatcher) Broadcast(evt Event) int {
	delivered := 0
	for _, c := range d.registry.Snapshot() {
		if err := c.Send(evt); err != nil {
			d.evict(c, err)
			continue
		}
		delivered++
	}
	return delivered
}

func (d *Dispatcher) evict(c Connection, cause error) {
	if d.registry.Unregister(c) {
		d.evicted.Add(1)
	}
	c.Close()
	d.logger.Warn("evicted realtime connection",
		logger.String("conn_id", c.ID()),
		logger.Error(cause))
}

// Stats exposes counters for the infra endpoint.
func (d *Dispatcher) Stats() (published, evicted uint64) {
	return d.published.Load(), d.evicted.Load()
}
