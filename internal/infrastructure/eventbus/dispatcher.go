package eventbus

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
)

// Dispatcher runs handlers synchronously on the caller's goroutine. Every handler of every event runs;
// a failing or panicking handler is logged and skipped.
type Dispatcher struct {
	Registry *Registry
	Logger   *logrus.Logger
}

func NewDispatcher(registry *Registry, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{Registry: registry, Logger: logger}
}

func (d *Dispatcher) Dispatch(ctx context.Context, events []event.Event) {
	for _, evt := range events {
		for _, h := range d.Registry.HandlersFor(evt.EventType()) {
			if err := runHandler(ctx, h, evt); err != nil && d.Logger != nil {
				d.Logger.WithError(err).WithFields(logrus.Fields{
					"handler":      h.Name(),
					"event_id":     evt.EventID(),
					"event_type":   evt.EventType(),
					"aggregate_id": evt.AggregateID(),
				}).Error("event handler failed")
			}
		}
	}
}

func runHandler(ctx context.Context, h Handler, evt event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, evt)
}

var _ repository.EventDispatcher = (*Dispatcher)(nil)
