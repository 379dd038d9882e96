package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewConsumer opens a channel on queue with prefetch unacked deliveries.
// The queue must already exist; the publisher declares it with its DLQ.
func NewConsumer(url, queue string, prefetch int) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbit dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbit channel: %w", err)
	}
	if _, err := ch.QueueDeclarePassive(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("queue %s: %w", queue, err)
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("qos: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, queue: queue}, nil
}

// Deliveries starts consuming with manual acks. The channel closes when ctx
// is cancelled or the connection drops.
func (c *Consumer) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	return c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Settle acks a handled delivery and rejects a failed one without requeue,
// which routes it to the dead-letter queue.
func Settle(d Acknowledger, err error) error {
	if err != nil {
		return d.Nack(false, false)
	}
	return d.Ack(false)
}

// Acknowledger is the settle side of an amqp.Delivery.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}
