// Package eventbus delivers committed domain events to in-process handlers.
//
// Handlers are registered in an explicit Registry at startup and injected into a dispatcher; there is
// no global lookup.
package eventbus

import (
	"context"
	"sync"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
)

// Handler reacts to one event.
type Handler interface {
	Name() string
	Handle(ctx context.Context, evt event.Event) error
}

type funcHandler struct {
	name string
	fn   func(ctx context.Context, evt event.Event) error
}

func (h funcHandler) Name() string { return h.name }

func (h funcHandler) Handle(ctx context.Context, evt event.Event) error { return h.fn(ctx, evt) }

// HandlerFunc adapts a function to a named Handler.
func HandlerFunc(name string, fn func(ctx context.Context, evt event.Event) error) Handler {
	return funcHandler{name: name, fn: fn}
}

// Registry maps event types to handlers in registration order.
type Registry struct {
	mu       sync.RWMutex
	handlers map[event.Type][]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[event.Type][]Handler)}
}

// Register appends handlers for eventType.
func (r *Registry) Register(eventType event.Type, handlers ...Handler) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = append(r.handlers[eventType], handlers...)
	return r
}

// RegisterAll registers h for every given type.
func (r *Registry) RegisterAll(types []event.Type, h Handler) *Registry {
	for _, t := range types {
		r.Register(t, h)
	}
	return r
}

// HandlersFor returns a copy of the handlers for eventType.
func (r *Registry) HandlersFor(eventType event.Type) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hs := r.handlers[eventType]
	out := make([]Handler, len(hs))
	copy(out, hs)
	return out
}
