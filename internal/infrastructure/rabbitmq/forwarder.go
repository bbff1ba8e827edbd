package rabbitmq

import (
	"context"
	"fmt"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
)

// JSONPublisher is satisfied by Publisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// EventForwarder is an in-process event handler that republishes committed domain events as
// integration envelopes.
type EventForwarder struct {
	pub JSONPublisher
}

func NewEventForwarder(pub JSONPublisher) *EventForwarder {
	return &EventForwarder{pub: pub}
}

func (f *EventForwarder) Name() string { return "integration-forwarder" }

func (f *EventForwarder) Handle(ctx context.Context, evt event.Event) error {
	env, err := event.Wrap(evt)
	if err != nil {
		return err
	}
	if err := f.pub.PublishJSON(ctx, env); err != nil {
		return fmt.Errorf("publish %s: %w", evt.EventType(), err)
	}
	return nil
}
