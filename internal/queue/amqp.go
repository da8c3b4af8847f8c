package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// AMQPPublisher publishes events to a durable RabbitMQ queue.
type AMQPPublisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// DialAMQP connects to url and declares queueName.
func DialAMQP(url, queueName string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if _, err := DeclareEventsQueue(ch, queueName); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, ch: ch, queue: queueName}, nil
}

// DeclareEventsQueue declares the durable queue shared by publisher and worker.
func DeclareEventsQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare queue: %w", err)
	}
	return q, nil
}

// Publish wraps payload in an Event and sends it as persistent JSON.
func (p *AMQPPublisher) Publish(topic string, payload any) error {
	event := NewEvent(topic, payload)

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.Publish(
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Type:         topic,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
}

// Subscribe is not supported on the publisher side; cmd/worker consumes.
func (p *AMQPPublisher) Subscribe(topic string, _ func(event Event) error) error {
	return fmt.Errorf("amqp publisher cannot subscribe to %s, run the worker", topic)
}

func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// DecodeEvent parses a delivery body published by AMQPPublisher.
func DecodeEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("invalid event: %w", err)
	}
	if event.ID == "" || event.Topic == "" {
		return Event{}, fmt.Errorf("invalid event: missing id or topic")
	}
	return event, nil
}
