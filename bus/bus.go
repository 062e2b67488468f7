package bus

import (
	"sync"

	"github.com/websines/meetingscribe/core"
)

const channelBuffer = 256

// Bus is a thread-safe publish/subscribe event fan-out. Observers subscribe
// under an id and receive every published event on a buffered channel.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan core.AgentEvent
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[string]chan core.AgentEvent)}
}

// Subscribe registers an observer id and returns its receive channel.
// Subscribing twice under the same id returns the existing channel.
func (b *Bus) Subscribe(id string) <-chan core.AgentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		return ch
	}
	ch := make(chan core.AgentEvent, channelBuffer)
	b.subscribers[id] = ch
	return ch
}

// Unsubscribe removes the observer and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Publish broadcasts an event to all subscribers. Non-blocking: a subscriber
// whose buffer is full misses the event rather than stalling the publisher.
func (b *Bus) Publish(ev core.AgentEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Publisher is the minimal emission surface agents depend on.
type Publisher interface {
	Publish(ev core.AgentEvent)
}

// NopPublisher discards every event. Useful default when no observer exists.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(core.AgentEvent) {}
