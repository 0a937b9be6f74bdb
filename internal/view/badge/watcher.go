// Package badge keeps the header cart-count indicator eventually
// consistent with server truth.
package badge

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/nattapatNtp/furniture-Frontend/internal/backend"
)

// DefaultInterval is the background re-poll period.
const DefaultInterval = 5 * time.Second

// API is the slice of the backend this watcher touches.
type API interface {
	Cart(ctx context.Context) ([]backend.CartLine, error)
}

// Sessions gates the refresh on token presence.
type Sessions interface {
	Token() (string, bool)
}

// Subscriber delivers cart-changed ticks.
type Subscriber interface {
	Subscribe() (<-chan struct{}, func())
}

// Watcher re-derives the badge count on every trigger: mount, cart-changed
// tick, storage signal, focus regain, and a fixed interval. Refreshes run
// one at a time; triggers landing mid-refresh coalesce into at most one
// queued follow-up instead of firing a request each.
type Watcher struct {
	api      API
	sessions Sessions
	bus      Subscriber
	interval time.Duration

	kick  chan struct{}
	count atomic.Int64
}

func NewWatcher(api API, sessions Sessions, bus Subscriber, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		api:      api,
		sessions: sessions,
		bus:      bus,
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Run drives the refresh loop until ctx is cancelled. Responses arriving
// after cancellation are discarded, never applied.
func (w *Watcher) Run(ctx context.Context) {
	busCh, cancel := w.bus.Subscribe()
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-busCh:
			w.refresh(ctx)
		case <-ticker.C:
			w.refresh(ctx)
		case <-w.kick:
			w.refresh(ctx)
		}
	}
}

// Poke requests a refresh from an external trigger (window focus, the
// cross-process storage signal). Non-blocking; a pending request absorbs
// repeats.
func (w *Watcher) Poke() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Count is the last displayed cart size.
func (w *Watcher) Count() int {
	return int(w.count.Load())
}

func (w *Watcher) refresh(ctx context.Context) {
	if _, ok := w.sessions.Token(); !ok {
		w.count.Store(0)
		return
	}

	lines, err := w.api.Cart(ctx)
	if ctx.Err() != nil {
		// Unmounted mid-request: drop the response.
		return
	}
	if err != nil {
		log.Printf("[Badge] refresh failed: %v", err)
		w.count.Store(0)
		return
	}

	var count int64
	for _, line := range lines {
		count += int64(line.Quantity)
	}
	w.count.Store(count)
}
