package rabbitmq_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/event"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/infrastructure/rabbitmq"
)

type fakeAck struct {
	acked    int
	nacked   int
	requeued bool
}

func (a *fakeAck) Ack(uint64, bool) error {
	a.acked++
	return nil
}

func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeued = requeue
	return nil
}

func (a *fakeAck) Reject(_ uint64, requeue bool) error { return a.Nack(0, false, requeue) }

var errTry = errors.New("try again")

func retryOnly(err error) bool { return errors.Is(err, errTry) }

func TestProcess_Settlement(t *testing.T) {
	tests := []struct {
		name        string
		handlerErr  error
		redelivered bool
		want        rabbitmq.Settlement
		acked       int
		requeued    bool
	}{
		{name: "success acks", want: rabbitmq.Acked, acked: 1},
		{name: "retryable first delivery requeues", handlerErr: errTry, want: rabbitmq.Requeued, requeued: true},
		{name: "retryable redelivery discards", handlerErr: errTry, redelivered: true, want: rabbitmq.Discarded},
		{name: "permanent discards", handlerErr: errors.New("bad body"), want: rabbitmq.Discarded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			ack := &fakeAck{}
			d := amqp.Delivery{Acknowledger: ack, Body: []byte("{}"), Redelivered: tt.redelivered}
			handler := func(context.Context, []byte) error { return tt.handlerErr }

			got := rabbitmq.Process(context.Background(), d, handler, retryOnly, logger)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.acked, ack.acked)
			assert.Equal(t, 1-tt.acked, ack.nacked)
			assert.Equal(t, tt.requeued, ack.requeued)
		})
	}
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishJSON(ctx context.Context, body any) error {
	return m.Called(ctx, body).Error(0)
}

func TestEventForwarder_PublishesEnvelope(t *testing.T) {
	pub := &mockPublisher{}
	evt := event.NewUserDeleted("u1", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	pub.On("PublishJSON", mock.Anything, mock.MatchedBy(func(body any) bool {
		env, ok := body.(event.Envelope)
		return ok && env.ID == evt.EventID() && env.Type == event.UserDeleted && env.Aggregate == "u1"
	})).Return(nil).Once()

	f := rabbitmq.NewEventForwarder(pub)
	require.NoError(t, f.Handle(context.Background(), evt))
	pub.AssertExpectations(t)
}

func TestEventForwarder_EnvelopeRoundTrips(t *testing.T) {
	var sent any
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, mock.Anything).Run(func(args mock.Arguments) { sent = args.Get(1) }).Return(nil)
	evt := event.NewUserChanged(event.UserLoggedIn, "u2", time.Now())

	require.NoError(t, rabbitmq.NewEventForwarder(pub).Handle(context.Background(), evt))

	body, err := json.Marshal(sent)
	require.NoError(t, err)
	env, err := event.DecodeEnvelope(body)
	require.NoError(t, err)
	assert.Equal(t, evt.EventID(), env.EventID())
	assert.Equal(t, event.UserLoggedIn, env.EventType())
}

func TestEventForwarder_PublishFailure(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	err := rabbitmq.NewEventForwarder(pub).Handle(context.Background(), event.NewUserDeleted("u1", time.Now()))

	assert.ErrorContains(t, err, "channel closed")
}
