package session

import "sync"

// Topics carried by the Broadcaster.
const (
	// TopicUnauthorized fires when the server rejects a request with 401.
	// The request layer publishes it; the session store subscribes and
	// clears itself. The signal keeps the dependency one-way: the request
	// layer never calls into the store directly.
	TopicUnauthorized = "unauthorized"
)

// Broadcaster is a process-wide signal bus: subscribers register a handler
// per topic, publishers fire topics. Handlers run synchronously on the
// publishing goroutine.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string][]func()
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[string][]func()),
	}
}

// Subscribe registers a handler for a topic. Subscriptions last the
// lifetime of the broadcaster.
func (b *Broadcaster) Subscribe(topic string, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], fn)
}

// Publish fires every handler registered for the topic.
func (b *Broadcaster) Publish(topic string) {
	b.mu.RLock()
	handlers := b.subs[topic]
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn()
	}
}
