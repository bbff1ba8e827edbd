package eventbus_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/eventbus"
)

type recorder struct {
	mu   sync.Mutex
	seen []string
	evts []event.Event
}

func (r *recorder) handler(name string) eventbus.Handler {
	return eventbus.HandlerFunc(name, func(_ context.Context, evt event.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seen = append(r.seen, name+":"+evt.AggregateID())
		r.evts = append(r.evts, evt)
		return nil
	})
}

func (r *recorder) events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.evts...)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func TestRegistry_HandlersForIsOrderedCopy(t *testing.T) {
	rec := &recorder{}
	reg := eventbus.NewRegistry().
		Register(event.UserCreated, rec.handler("a"), rec.handler("b"))

	hs := reg.HandlersFor(event.UserCreated)
	require.Len(t, hs, 2)
	assert.Equal(t, "a", hs[0].Name())
	assert.Equal(t, "b", hs[1].Name())

	hs[0] = nil
	assert.NotNil(t, reg.HandlersFor(event.UserCreated)[0])
	assert.Empty(t, reg.HandlersFor(event.UserDeleted))
}

func TestDispatcher_IsolatesFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rec := &recorder{}
	reg := eventbus.NewRegistry().Register(event.UserCreated,
		eventbus.HandlerFunc("broken", func(context.Context, event.Event) error { return errors.New("boom") }),
		eventbus.HandlerFunc("panics", func(context.Context, event.Event) error { panic("bad handler") }),
		rec.handler("ok"),
	)

	d := eventbus.NewDispatcher(reg, logger)
	d.Dispatch(context.Background(), []event.Event{event.NewUserCreated("u1", "a@example.com", time.Now())})

	assert.Equal(t, []string{"ok:u1"}, rec.list())
	require.Len(t, hook.AllEntries(), 2)
	for _, e := range hook.AllEntries() {
		assert.Equal(t, logrus.ErrorLevel, e.Level)
		assert.Equal(t, "u1", e.Data["aggregate_id"])
	}
	assert.Equal(t, "panics", hook.LastEntry().Data["handler"])
}

func TestAsyncDispatcher_KeepsPerAggregateOrderAndDrains(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rec := &recorder{}
	reg := eventbus.NewRegistry().RegisterAll(event.UserTypes(), rec.handler("h"))
	d := eventbus.NewAsyncDispatcher(eventbus.NewDispatcher(reg, logger), logger, 3, 8)

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	d.Dispatch(ctx, []event.Event{
		event.NewUserCreated("u1", "a@example.com", now),
		event.NewUserChanged(event.UserProfileUpdated, "u2", now),
		event.NewUserDeleted("u1", now),
	})
	cancel()

	require.NoError(t, d.Close(context.Background()))

	seen := rec.list()
	assert.ElementsMatch(t, []string{"h:u1", "h:u2", "h:u1"}, seen)
	var u1 []event.Type
	for _, evt := range rec.events() {
		if evt.AggregateID() == "u1" {
			u1 = append(u1, evt.EventType())
		}
	}
	assert.Equal(t, []event.Type{event.UserCreated, event.UserDeleted}, u1)
}

func TestAsyncDispatcher_DropsAfterClose(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rec := &recorder{}
	reg := eventbus.NewRegistry().Register(event.UserCreated, rec.handler("h"))
	d := eventbus.NewAsyncDispatcher(eventbus.NewDispatcher(reg, logger), logger, 1, 1)
	require.NoError(t, d.Close(context.Background()))

	d.Dispatch(context.Background(), []event.Event{event.NewUserCreated("u1", "a@example.com", time.Now())})

	assert.Empty(t, rec.list())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
