package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Publisher pushes a draft event onto the stream. The draft engine publishes
// through this after every state change.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler receives events for a subscribed draft.
type Handler func(event Event)

// Subscriber delivers the event stream for a single draft.
type Subscriber interface {
	// Subscribe registers a handler for one draft's events and returns an
	// unsubscribe func. The handler must not block.
	Subscribe(draftID uuid.UUID, handler Handler) (unsubscribe func())
}

// Hub is an in-process event bus. It serves single-node deployments and
// tests; multi-node deployments layer JetStream on top and use the hub only
// as the local fan-out stage.
type Hub struct {
	mu      sync.RWMutex
	nextID  int
	subs    map[uuid.UUID]map[int]Handler
	allSubs map[int]Handler
}

func NewHub() *Hub {
	return &Hub{
		subs:    make(map[uuid.UUID]map[int]Handler),
		allSubs: make(map[int]Handler),
	}
}

func (h *Hub) Publish(_ context.Context, event Event) error {
	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.subs[event.DraftID])+len(h.allSubs))
	for _, fn := range h.subs[event.DraftID] {
		handlers = append(handlers, fn)
	}
	for _, fn := range h.allSubs {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}

	log.Debug().
		Str("draft_id", event.DraftID.String()).
		Str("event_type", string(event.Type)).
		Int("subscribers", len(handlers)).
		Msg("event fanned out")
	return nil
}

func (h *Hub) Subscribe(draftID uuid.UUID, handler Handler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[draftID] == nil {
		h.subs[draftID] = make(map[int]Handler)
	}
	id := h.nextID
	h.nextID++
	h.subs[draftID][id] = handler

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[draftID], id)
		if len(h.subs[draftID]) == 0 {
			delete(h.subs, draftID)
		}
	}
}

// SubscribeAll registers a handler for every draft's events. The gateway
// uses this in single-node deployments where no external stream exists.
func (h *Hub) SubscribeAll(handler Handler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.allSubs[id] = handler

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.allSubs, id)
	}
}

// Tee publishes to several publishers in order, reporting the first failure
// after trying all of them.
type Tee []Publisher

func (t Tee) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range t {
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Nop discards events. Used where a component requires a Publisher but the
// deployment has no stream.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
