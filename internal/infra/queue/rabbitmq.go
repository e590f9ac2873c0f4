package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"panchang-backend/internal/domain"
	"panchang-backend/internal/infra/metrics"
)

// AMQPDeliveryQueue transports delivery jobs over RabbitMQ with manual
// acks, so a crashed worker leaves its job for redelivery.
type AMQPDeliveryQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	mu         sync.Mutex
	deliveries <-chan amqp.Delivery
}

// NewAMQPDeliveryQueue dials the broker and declares a durable queue.
func NewAMQPDeliveryQueue(amqpURL, queue string) (*AMQPDeliveryQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &AMQPDeliveryQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue publishes a job as a persistent message.
func (q *AMQPDeliveryQueue) Enqueue(ctx context.Context, job domain.DeliveryJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Receive blocks for the next job. The returned ack confirms the message on
// success and requeues it otherwise.
func (q *AMQPDeliveryQueue) Receive(ctx context.Context) (domain.DeliveryJob, domain.DeliveryAckFunc, error) {
	deliveries, err := q.consumeChan(ctx)
	if err != nil {
		return domain.DeliveryJob{}, nil, err
	}
	select {
	case <-ctx.Done():
		return domain.DeliveryJob{}, nil, ctx.Err()
	case d, ok := <-deliveries:
		if !ok {
			return domain.DeliveryJob{}, nil, errors.New("amqp queue: consumer channel closed")
		}
		var job domain.DeliveryJob
		if err := json.Unmarshal(d.Body, &job); err != nil {
			// Poison message: drop it instead of requeueing forever.
			_ = d.Nack(false, false)
			return domain.DeliveryJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return d.Ack(false)
			}
			return d.Nack(false, true)
		}
		return job, ack, nil
	}
}

// Close shuts the channel and connection down.
func (q *AMQPDeliveryQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}

func (q *AMQPDeliveryQueue) consumeChan(ctx context.Context) (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	deliveries, err := q.ch.ConsumeWithContext(ctx, q.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	q.deliveries = deliveries
	return deliveries, nil
}
