// Package sse provides Server-Sent Events broadcasting for pomotrack.
package sse

import (
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// subscriberBuffer bounds each subscriber channel. A subscriber that
// falls this far behind starts losing events rather than blocking the
// create path.
const subscriberBuffer = 8

// Broadcaster fans session events out to subscribed HTTP handlers.
// Each subscriber owns its channel and writes to its own connection;
// the broadcaster never touches a ResponseWriter.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan []byte]struct{}),
	}
}

// Subscribe registers a new subscriber and returns its channel.
func (b *Broadcaster) Subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	count := len(b.subscribers)
	b.mu.Unlock()

	log.Debug().Int("subscribers", count).Msg("SSE subscriber connected")
	return ch
}

// Unsubscribe removes a subscriber.
func (b *Broadcaster) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	count := len(b.subscribers)
	b.mu.Unlock()

	log.Debug().Int("subscribers", count).Msg("SSE subscriber disconnected")
}

// Broadcast sends one named event to every subscriber. Slow
// subscribers are skipped, never waited on.
func (b *Broadcaster) Broadcast(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to marshal SSE event")
		return
	}
	msg := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, payload))

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			log.Debug().Str("event", event).Msg("Dropping SSE event for slow subscriber")
		}
	}
}
