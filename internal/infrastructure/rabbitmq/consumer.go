package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// MessageHandler processes one message body.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer reads one queue with manual acknowledgement.
type Consumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	handler  MessageHandler
	policy   Policy
	logger   *logrus.Logger
	prefetch int
}

// Policy decides whether a failed message is worth one redelivery.
type Policy func(err error) (retryable bool)

func NewConsumer(url, queue string, prefetch int, handler MessageHandler, policy Policy, logger *logrus.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if prefetch <= 0 {
		prefetch = 16
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("qos: %w", err)
	}
	if err := declare(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Consumer{
		conn:     conn,
		ch:       ch,
		queue:    queue,
		handler:  handler,
		policy:   policy,
		logger:   logger,
		prefetch: prefetch,
	}, nil
}

// Run consumes until ctx is cancelled or the broker closes the delivery channel.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.WithFields(logrus.Fields{"queue": c.queue, "prefetch": c.prefetch}).Info("consumer listening")
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", c.queue)
			}
			Process(ctx, d, c.handler, c.policy, c.logger)
		}
	}
}

func (c *Consumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Settlement is what happened to a delivery.
type Settlement string

const (
	Acked     Settlement = "ack"
	Requeued  Settlement = "requeue"
	Discarded Settlement = "discard"
)

// Process runs the handler and settles the delivery. Success acks. A retryable failure is requeued
// once; a redelivered message that fails again, or a permanent failure, is discarded.
func Process(ctx context.Context, d amqp.Delivery, handler MessageHandler, policy Policy, logger *logrus.Logger) Settlement {
	err := handler(ctx, d.Body)
	s := settle(d, err, policy)
	entry := logger.WithFields(logrus.Fields{
		"delivery_tag": d.DeliveryTag,
		"redelivered":  d.Redelivered,
		"settlement":   s,
	})

	var ackErr error
	switch s {
	case Acked:
		ackErr = d.Ack(false)
	case Requeued:
		entry.WithError(err).Warn("message failed, requeued")
		ackErr = d.Nack(false, true)
	default:
		entry.WithError(err).Error("message discarded")
		ackErr = d.Nack(false, false)
	}
	if ackErr != nil {
		entry.WithError(ackErr).Error("settle delivery")
	}
	return s
}

func settle(d amqp.Delivery, err error, policy Policy) Settlement {
	switch {
	case err == nil:
		return Acked
	case policy != nil && policy(err) && !d.Redelivered:
		return Requeued
	default:
		return Discarded
	}
}
