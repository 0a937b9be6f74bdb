package bus

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// relayEvent is the wire form of a cart-changed tick between storefront
// processes. Origin lets a process skip its own echoes.
type relayEvent struct {
	Origin    string    `json:"origin"`
	EmittedAt time.Time `json:"emitted_at"`
}

// Relay bridges cart-changed ticks across storefront processes, the way
// the browser's storage event carried them across tabs. Local publishes
// are forwarded to the topic; remote ones are re-published on the local bus.
type Relay struct {
	bus    *Bus
	origin string
	writer *kafka.Writer
	reader *kafka.Reader
}

func NewRelay(b *Bus, brokers []string, topic, origin string) *Relay {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "storefront-" + origin,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Relay{bus: b, origin: origin, writer: writer, reader: reader}
}

// Broadcast forwards a local cart change to other processes.
func (r *Relay) Broadcast(ctx context.Context) error {
	data, err := json.Marshal(relayEvent{Origin: r.origin, EmittedAt: time.Now()})
	if err != nil {
		return err
	}
	return r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(r.origin),
		Value: data,
		Time:  time.Now(),
	})
}

// Run consumes remote ticks until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	for {
		msg, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Relay] read error: %v", err)
			continue
		}

		var event relayEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("[Relay] bad event: %v", err)
			continue
		}
		if event.Origin == r.origin {
			continue
		}
		r.bus.Publish()
	}
}

func (r *Relay) Close() error {
	if err := r.writer.Close(); err != nil {
		r.reader.Close()
		return err
	}
	return r.reader.Close()
}
