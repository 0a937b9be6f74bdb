package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(ch <-chan struct{}) int {
	var n int
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	b := New()
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	b.Publish()

	assert.Equal(t, 1, drain(ch1))
	assert.Equal(t, 1, drain(ch2))
}

func TestBus_PendingTicksCoalesce(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish()
	b.Publish()
	b.Publish()

	// One-slot buffer: repeats beyond a pending tick are absorbed.
	assert.Equal(t, 1, drain(ch))
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	cancel()

	b.Publish()

	assert.Zero(t, drain(ch))
}

func TestBus_PublishWithNoSubscribers(t *testing.T) {
	b := New()
	require.NotPanics(t, func() { b.Publish() })
}
