package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrMalformedEnvelope = errors.New("malformed integration event")

// Envelope is the wire form of an integration event. It travels across processes with at-least-once
// delivery and may be redelivered or reordered.
type Envelope struct {
	ID        string          `json:"event_id"`
	Type      Type            `json:"event_type"`
	Aggregate string          `json:"aggregate_id"`
	Occurred  time.Time       `json:"occurred_at"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (e Envelope) EventID() string       { return e.ID }
func (e Envelope) EventType() Type       { return e.Type }
func (e Envelope) OccurredAt() time.Time { return e.Occurred }
func (e Envelope) AggregateID() string   { return e.Aggregate }

// Wrap builds the envelope for a domain event.
func Wrap(evt Event) (Envelope, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", evt.EventType(), err)
	}
	return Envelope{
		ID:        evt.EventID(),
		Type:      evt.EventType(),
		Aggregate: evt.AggregateID(),
		Occurred:  evt.OccurredAt(),
		Payload:   payload,
	}, nil
}

// DecodeEnvelope parses and checks an envelope body.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.ID == "" || env.Type == "" || env.Aggregate == "" {
		return Envelope{}, fmt.Errorf("%w: missing identity", ErrMalformedEnvelope)
	}
	return env, nil
}
