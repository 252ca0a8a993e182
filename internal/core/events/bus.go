package events

import (
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bus is a frame-buffered publish/subscribe fan-out. Publishing never
// invokes handlers inline; events accumulate until Dispatch, which the
// engine calls once per frame between passes. Handlers therefore always
// run outside system execution and may touch the world freely.
type Bus struct {
	log *zap.Logger

	mu      sync.RWMutex
	subs    map[reflect.Type]map[uuid.UUID]func(any)
	pending []any
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		log:  log,
		subs: make(map[reflect.Type]map[uuid.UUID]func(any)),
	}
}

// Publish queues event for the next Dispatch.
func (b *Bus) Publish(event any) {
	b.mu.Lock()
	b.pending = append(b.pending, event)
	b.mu.Unlock()
}

// Dispatch delivers every queued event to the handlers subscribed to its
// concrete type, in publish order. Events queued during dispatch are held
// for the next call.
func (b *Bus) Dispatch() int {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, event := range batch {
		t := reflect.TypeOf(event)
		b.mu.RLock()
		handlers := make([]func(any), 0, len(b.subs[t]))
		for _, h := range b.subs[t] {
			handlers = append(handlers, h)
		}
		b.mu.RUnlock()

		if len(handlers) == 0 {
			b.log.Debug("event with no subscribers", zap.String("type", t.String()))
			continue
		}
		for _, h := range handlers {
			h(event)
		}
	}
	return len(batch)
}

// Pending returns the number of undelivered events.
func (b *Bus) Pending() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pending)
}

func (b *Bus) subscribe(t reflect.Type, h func(any)) uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.New()
	if b.subs[t] == nil {
		b.subs[t] = make(map[uuid.UUID]func(any))
	}
	b.subs[t][id] = h
	return id
}

// Unsubscribe removes the subscription with the given id.
func (b *Bus) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.subs {
		delete(m, id)
	}
}

// Subscribe registers handler for events of type E and returns a token for
// Unsubscribe.
func Subscribe[E any](b *Bus, handler func(E)) uuid.UUID {
	return b.subscribe(reflect.TypeFor[E](), func(v any) {
		handler(v.(E))
	})
}
