package bus

import "sync"

// Bus is the explicit cart-changed channel between the cart view and the
// header badge. The signal carries no payload: subscribers re-read server
// truth, so a dropped tick costs nothing as long as one is pending.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func New() *Bus {
	return &Bus{subs: make(map[int]chan struct{})}
}

// Subscribe returns a channel that receives a tick on every publish, plus
// a cancel func. The channel has a one-slot buffer; ticks beyond a pending
// one are coalesced.
func (b *Bus) Subscribe() (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan struct{}, 1)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
	return ch, cancel
}

// Publish signals every subscriber without blocking.
func (b *Bus) Publish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
