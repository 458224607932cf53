package session

import (
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/tabletap/tabletap/internal/event"
)

// EventHub fans session events out to in-process observers (the dashboard
// SSE endpoint, primarily). Registration returns a cancel handle that
// guarantees unregistration; slow observers drop events rather than block
// the writer, which is safe because every event carries the full document.
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[string]chan event.SessionEvent
	logger      apt.Logger
}

func NewEventHub(logger apt.Logger) *EventHub {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &EventHub{
		subscribers: make(map[string]chan event.SessionEvent),
		logger:      logger,
	}
}

// Subscribe registers an observer and returns its event channel plus a
// cancel function. Cancel is idempotent and closes the channel.
func (h *EventHub) Subscribe(buffer int) (<-chan event.SessionEvent, func()) {
	if buffer <= 0 {
		buffer = 64
	}

	id := uuid.NewString()
	ch := make(chan event.SessionEvent, buffer)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	h.logger.Debug("session event subscriber registered", "subscriber_id", id)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
			close(ch)
			h.logger.Debug("session event subscriber unregistered", "subscriber_id", id)
		})
	}

	return ch, cancel
}

// Broadcast delivers an event to every registered observer.
func (h *EventHub) Broadcast(evt event.SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- evt:
		default:
			h.logger.Info("session event dropped for slow subscriber", "subscriber_id", id, "event_type", evt.EventType)
		}
	}
}

// SubscriberCount reports the number of registered observers.
func (h *EventHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
