package bus

import (
	"context"
	"log"
)

// Notifier is the publish side of the cart-changed channel.
type Notifier interface {
	Publish()
}

// WithRelay returns a Notifier that publishes locally and forwards the
// tick to other storefront processes. The forward is fire-and-forget; a
// broken relay never blocks a cart mutation.
func WithRelay(ctx context.Context, b *Bus, r *Relay) Notifier {
	return &relayNotifier{ctx: ctx, bus: b, relay: r}
}

type relayNotifier struct {
	ctx   context.Context
	bus   *Bus
	relay *Relay
}

func (n *relayNotifier) Publish() {
	n.bus.Publish()
	go func() {
		if err := n.relay.Broadcast(n.ctx); err != nil && n.ctx.Err() == nil {
			log.Printf("[Relay] broadcast failed: %v", err)
		}
	}()
}
