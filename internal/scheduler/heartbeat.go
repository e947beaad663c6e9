package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/realtime"
)

// DefaultHeartbeatInterval is used when no interval is configured.
const DefaultHeartbeatInterval = 30 * time.Second

// Heartbeat pings live connections and evicts the ones that don't answer.
// Connections that can't be pinged are left alone.
type Heartbeat struct {
	registry *realtime.Registry
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewHeartbeat(registry *realtime.Registry, log logger.Logger, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Heartbeat{
		registry: registry,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (h *Heartbeat) Start(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.Beat(ctx)
			case <-h.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *Heartbeat) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

// Beat pings every connection of a registry snapshot concurrently and returns
// how many were evicted.
func (h *Heartbeat) Beat(ctx context.Context) int {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		evicted int
	)
	for _, c := range h.registry.Snapshot() {
		p, ok := c.(realtime.Pinger)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(c realtime.Connection, p realtime.Pinger) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, h.interval)
			defer cancel()
			if err := p.Ping(pctx); err != nil {
				if h.registry.Unregister(c) {
					mu.Lock()
					evicted++
					mu.Unlock()
				}
				c.Close()
				h.logger.Info("dropped unresponsive connection",
					logger.String("conn_id", c.ID()),
					logger.Error(err))
			}
		}(c, p)
	}
	wg.Wait()

	if evicted > 0 {
		h.logger.Debug("heartbeat evictions", logger.Int("evicted", evicted))
	}
	return evicted
}
