// Package sse implements the fan-out hub behind GET /draws/events.
//
// The hub is an explicit registry created at process start; each live
// viewer connection holds one Subscription. Delivery is best-effort: a
// subscriber that stops draining its channel is dropped so one dead
// browser can never block the others, and missed events are reconciled by
// the client via the winners snapshot endpoint.
package sse

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventops/doorprize-backend/internal/metrics"
	"github.com/eventops/doorprize-backend/internal/models"
)

// Event types written to the stream.
const (
	TypeHello         = "hello"
	TypePing          = "ping"
	TypeDrawCompleted = "draw_completed"
)

// DrawPayload is the draw summary carried by a draw_completed event.
type DrawPayload struct {
	ID        string `json:"id"`
	PrizeName string `json:"prize_name"`
	Quota     int    `json:"quota"`
}

// WinnerPayload is one selected participant in a draw_completed event.
type WinnerPayload struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Department *string `json:"department"`
}

// Event is one JSON object written as a single `data:` frame.
type Event struct {
	Type    string          `json:"type"`
	TS      int64           `json:"ts"`
	Draw    *DrawPayload    `json:"draw,omitempty"`
	Winners []WinnerPayload `json:"winners,omitempty"`
}

// Hello returns the greeting event sent once per new connection.
func Hello() Event {
	return Event{Type: TypeHello, TS: time.Now().UnixMilli()}
}

// Ping returns a keep-alive event.
func Ping() Event {
	return Event{Type: TypePing, TS: time.Now().UnixMilli()}
}

// DrawCompleted builds the event published after a draw commits.
func DrawCompleted(draw models.Draw, winners []models.Participant) Event {
	payload := make([]WinnerPayload, 0, len(winners))
	for _, w := range winners {
		payload = append(payload, WinnerPayload{
			ID:         w.ID.String(),
			Name:       w.Name,
			Department: w.Department,
		})
	}
	return Event{
		Type: TypeDrawCompleted,
		TS:   time.Now().UnixMilli(),
		Draw: &DrawPayload{
			ID:        draw.ID.String(),
			PrizeName: draw.PrizeName,
			Quota:     draw.Quota,
		},
		Winners: payload,
	}
}

// subscriberBuffer is sized for a burst of draws; a viewer further behind
// than this is considered dead and is dropped.
const subscriberBuffer = 16

// Subscription is one registered output stream. Receive from C until it
// is closed, then stop.
type Subscription struct {
	C  <-chan Event
	ch chan Event
}

// Hub fans events out to every currently registered subscription.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
	log  zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[*Subscription]struct{}),
		log:  log.With().Str("component", "sse_hub").Logger(),
	}
}

// Subscribe registers a new output stream for future events.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Event, subscriberBuffer)
	s := &Subscription{C: ch, ch: ch}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	metrics.StreamSubscribers.Set(float64(n))
	h.log.Debug().Int("subscribers", n).Msg("stream subscribed")
	return s
}

// Unsubscribe removes a stream and closes its channel. Safe to call more
// than once (the second call is a no-op).
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	_, ok := h.subs[s]
	if ok {
		delete(h.subs, s)
		close(s.ch)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if ok {
		metrics.StreamSubscribers.Set(float64(n))
		h.log.Debug().Int("subscribers", n).Msg("stream unsubscribed")
	}
}

// Publish delivers ev to every registered subscription, in registration-
// independent order. Delivery to each subscriber is FIFO; a subscriber
// whose buffer is full is removed rather than letting it stall the rest.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	var dropped []*Subscription
	for s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			dropped = append(dropped, s)
		}
	}
	for _, s := range dropped {
		delete(h.subs, s)
		close(s.ch)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if len(dropped) > 0 {
		metrics.StreamDropped.Add(float64(len(dropped)))
		metrics.StreamSubscribers.Set(float64(n))
		h.log.Warn().Int("dropped", len(dropped)).Msg("dropped stalled stream subscribers")
	}
}

// Len reports the current subscriber count.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
