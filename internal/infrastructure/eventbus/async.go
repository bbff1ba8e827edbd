package eventbus

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/repository"
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

type job struct {
	ctx    context.Context
	events []event.Event
}

// AsyncDispatcher queues events and runs them on a fixed set of workers, so the writer returns as soon
// as its commit does. Events of one aggregate always land on the same worker and keep their order.
type AsyncDispatcher struct {
	next   *Dispatcher
	logger *logrus.Logger
	queues []chan job
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewAsyncDispatcher starts workers goroutines, each with a queue of queueSize batches.
func NewAsyncDispatcher(next *Dispatcher, logger *logrus.Logger, workers, queueSize int) *AsyncDispatcher {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &AsyncDispatcher{next: next, logger: logger, queues: make([]chan job, workers)}
	for i := range d.queues {
		q := make(chan job, queueSize)
		d.queues[i] = q
		d.wg.Add(1)
		go d.work(q)
	}
	return d
}

func (d *AsyncDispatcher) work(q <-chan job) {
	defer d.wg.Done()
	for j := range q {
		d.next.Dispatch(j.ctx, j.events)
	}
}

// Dispatch enqueues events. The caller's cancellation is detached from the handlers; it only bounds
// the wait for queue space.
func (d *AsyncDispatcher) Dispatch(ctx context.Context, events []event.Event) {
	if len(events) == 0 {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(events, ErrDispatcherClosed)
		return
	}

	detached := context.WithoutCancel(ctx)
	for shard, batch := range d.shard(events) {
		select {
		case d.queues[shard] <- job{ctx: detached, events: batch}:
		case <-ctx.Done():
			d.drop(batch, ctx.Err())
		}
	}
}

func (d *AsyncDispatcher) shard(events []event.Event) map[int][]event.Event {
	out := make(map[int][]event.Event)
	for _, evt := range events {
		h := fnv.New32a()
		_, _ = h.Write([]byte(evt.AggregateID()))
		i := int(h.Sum32() % uint32(len(d.queues)))
		out[i] = append(out[i], evt)
	}
	return out
}

func (d *AsyncDispatcher) drop(events []event.Event, reason error) {
	if d.logger == nil {
		return
	}
	for _, evt := range events {
		d.logger.WithError(reason).WithFields(logrus.Fields{
			"event_id":     evt.EventID(),
			"event_type":   evt.EventType(),
			"aggregate_id": evt.AggregateID(),
		}).Warn("event not dispatched")
	}
}

// Close stops accepting events and waits for queued ones to finish, or for ctx to end.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, q := range d.queues {
			close(q)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ repository.EventDispatcher = (*AsyncDispatcher)(nil)
