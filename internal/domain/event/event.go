// Package event defines domain events raised by aggregates and the integration envelope used to carry
// them across processes. Events are notifications, never the system of record.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Type names an event kind, e.g. "users.UserCreated".
type Type string

func (t Type) String() string { return string(t) }

// Event is an immutable fact raised by an aggregate.
type Event interface {
	EventID() string
	EventType() Type
	OccurredAt() time.Time
	AggregateID() string
}

// Base holds the fields common to every event. Embed it in concrete events.
type Base struct {
	ID        string    `json:"event_id"`
	Type      Type      `json:"event_type"`
	Timestamp time.Time `json:"occurred_at"`
	Aggregate string    `json:"aggregate_id"`
}

func NewBase(eventType Type, aggregateID string, at time.Time) Base {
	return Base{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: at.UTC(),
		Aggregate: aggregateID,
	}
}

func (b Base) EventID() string       { return b.ID }
func (b Base) EventType() Type       { return b.Type }
func (b Base) OccurredAt() time.Time { return b.Timestamp }
func (b Base) AggregateID() string   { return b.Aggregate }
