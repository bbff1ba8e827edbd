package entity

import (
	"time"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
)

// AggregateRoot collects domain events raised during a business operation and carries the lifecycle
// state every aggregate shares: timestamps, soft-delete flag and store version.
//
// Embed it in aggregate structs. Events stay on the aggregate until the write repository has
// committed; the repository then hands them to the dispatcher and clears them.
type AggregateRoot struct {
	events    []event.Event
	createdAt time.Time
	updatedAt *time.Time
	deletedAt *time.Time
	deleted   bool
	version   int64
}

// RecordEvent appends an event to the pending queue.
func (a *AggregateRoot) RecordEvent(e event.Event) {
	a.events = append(a.events, e)
}

// PendingEvents returns a copy of the pending queue.
func (a *AggregateRoot) PendingEvents() []event.Event {
	out := make([]event.Event, len(a.events))
	copy(out, a.events)
	return out
}

func (a *AggregateRoot) ClearEvents() {
	a.events = nil
}

func (a *AggregateRoot) CreatedAt() time.Time  { return a.createdAt }
func (a *AggregateRoot) UpdatedAt() *time.Time { return copyTime(a.updatedAt) }
func (a *AggregateRoot) DeletedAt() *time.Time { return copyTime(a.deletedAt) }
func (a *AggregateRoot) IsDeleted() bool       { return a.deleted }
func (a *AggregateRoot) Version() int64        { return a.version }

// SetVersion records the store version after a successful write. Only stores call it.
func (a *AggregateRoot) SetVersion(v int64) { a.version = v }

// EnsureActive fails with ErrDeletedAggregateOperation once the aggregate is soft-deleted.
func (a *AggregateRoot) EnsureActive() error {
	if a.deleted {
		return ErrDeletedAggregateOperation
	}
	return nil
}

// Touch stamps the updated-at time. Every state-changing mutator calls it.
func (a *AggregateRoot) Touch(now time.Time) {
	t := now.UTC()
	a.updatedAt = &t
}

// SoftDelete flags the aggregate deleted.
func (a *AggregateRoot) SoftDelete(now time.Time) error {
	if err := a.EnsureActive(); err != nil {
		return err
	}
	t := now.UTC()
	a.deleted = true
	a.deletedAt = &t
	a.updatedAt = &t
	return nil
}

// Restore clears the deleted flag.
func (a *AggregateRoot) Restore(now time.Time) error {
	if !a.deleted {
		return ErrNotDeleted
	}
	a.deleted = false
	a.deletedAt = nil
	a.Touch(now)
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
