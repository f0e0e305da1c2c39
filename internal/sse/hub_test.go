package sse

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventops/doorprize-backend/internal/models"
)

func newTestHub() *Hub {
	return NewHub(zerolog.Nop())
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := newTestHub()
	a := h.Subscribe()
	b := h.Subscribe()
	require.Equal(t, 2, h.Len())

	h.Publish(Event{Type: TypePing, TS: 1})

	for _, s := range []*Subscription{a, b} {
		select {
		case ev := <-s.C:
			assert.Equal(t, TypePing, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestPerSubscriberFIFO(t *testing.T) {
	h := newTestHub()
	s := h.Subscribe()

	for i := 0; i < 5; i++ {
		h.Publish(Event{Type: TypePing, TS: int64(i)})
	}

	for i := 0; i < 5; i++ {
		ev := <-s.C
		assert.Equal(t, int64(i), ev.TS, "events must arrive in publish order")
	}
}

func TestUnsubscribeClosesChannelAndIsIdempotent(t *testing.T) {
	h := newTestHub()
	s := h.Subscribe()

	h.Unsubscribe(s)
	h.Unsubscribe(s) // second call must not panic

	_, open := <-s.C
	assert.False(t, open)
	assert.Equal(t, 0, h.Len())

	// Publishing after teardown is a no-op.
	h.Publish(Event{Type: TypePing})
}

func TestStalledSubscriberIsDroppedOthersDeliver(t *testing.T) {
	h := newTestHub()
	stalled := h.Subscribe()
	healthy := h.Subscribe()

	// Overflow the stalled subscriber's buffer while the healthy one
	// drains every event as it arrives.
	for i := 0; i <= subscriberBuffer; i++ {
		h.Publish(Event{Type: TypePing, TS: int64(i)})
		select {
		case ev := <-healthy.C:
			assert.Equal(t, int64(i), ev.TS)
		case <-time.After(time.Second):
			t.Fatalf("healthy subscriber missed event %d", i)
		}
	}

	assert.Equal(t, 1, h.Len(), "stalled subscriber should have been removed")

	// The stalled channel was closed holding only what its buffer took.
	drained := 0
	for range stalled.C {
		drained++
	}
	assert.Equal(t, subscriberBuffer, drained)
}

func TestDrawCompletedPayloadShape(t *testing.T) {
	dept := "IT"
	draw := models.Draw{ID: uuid.New(), PrizeName: "TV", Quota: 2}
	winners := []models.Participant{
		{ID: uuid.New(), Name: "A", Department: &dept},
		{ID: uuid.New(), Name: "B"},
	}

	ev := DrawCompleted(draw, winners)

	require.Equal(t, TypeDrawCompleted, ev.Type)
	require.NotNil(t, ev.Draw)
	assert.Equal(t, draw.ID.String(), ev.Draw.ID)
	assert.Equal(t, "TV", ev.Draw.PrizeName)
	assert.Equal(t, 2, ev.Draw.Quota)
	require.Len(t, ev.Winners, 2)
	assert.Equal(t, winners[0].ID.String(), ev.Winners[0].ID)
	assert.Equal(t, &dept, ev.Winners[0].Department)
	assert.Nil(t, ev.Winners[1].Department)
	assert.NotZero(t, ev.TS)
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	h := newTestHub()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s := h.Subscribe()
				h.Publish(Event{Type: TypePing, TS: int64(g*100 + i)})
				h.Unsubscribe(s)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 0, h.Len(), fmt.Sprintf("expected empty hub, have %d", h.Len()))
}
