package service

import (
	"context"
	"fmt"
	"log"

	"github.com/streadway/amqp"

	"github.com/unclebandit/lunchly-backend/internal/queue"
	"github.com/unclebandit/lunchly-backend/internal/repository"
)

// EventHandler handles one decoded event.
type EventHandler func(ctx context.Context, event queue.Event) error

// AttemptsHeader counts how many times an event has been handled.
const AttemptsHeader = "x-attempts"

// DefaultMaxAttempts is used when Worker.MaxAttempts is not set.
const DefaultMaxAttempts = 3

// Republisher puts a retried event back on its queue. *amqp.Channel satisfies it.
type Republisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Worker consumes events from the events queue.
type Worker struct {
	Deliveries  <-chan amqp.Delivery
	Handle      EventHandler
	Republisher Republisher
	MaxAttempts int
}

func NewWorker(deliveries <-chan amqp.Delivery, handle EventHandler, republisher Republisher) *Worker {
	return &Worker{
		Deliveries:  deliveries,
		Handle:      handle,
		Republisher: republisher,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Start processes deliveries until the channel closes.
func (w *Worker) Start(ctx context.Context) {
	for d := range w.Deliveries {
		w.process(ctx, d)
	}
}

// process acks handled and malformed deliveries. A failed event is
// republished with its attempt count bumped until MaxAttempts is reached,
// then dropped. If republishing fails the delivery is nacked for requeue.
func (w *Worker) process(ctx context.Context, d amqp.Delivery) {
	event, err := queue.DecodeEvent(d.Body)
	if err != nil {
		log.Println("❌ Dropping invalid event:", err)
		_ = d.Ack(false)
		return
	}

	if err := w.Handle(ctx, event); err != nil {
		attempt := deliveryAttempts(d) + 1
		if attempt >= w.maxAttempts() || w.Republisher == nil {
			log.Printf("❌ Event %s on %s failed after %d attempts: %v", event.ID, event.Topic, attempt, err)
			_ = d.Ack(false)
			return
		}

		if rerr := w.retry(d, attempt); rerr != nil {
			log.Printf("⚠️ Event %s on %s could not be republished, requeueing: %v", event.ID, event.Topic, rerr)
			_ = d.Nack(false, true)
			return
		}
		log.Printf("⚠️ Event %s on %s failed (attempt %d/%d): %v", event.ID, event.Topic, attempt, w.maxAttempts(), err)
	}

	_ = d.Ack(false)
}

func (w *Worker) retry(d amqp.Delivery, attempt int) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[AttemptsHeader] = int32(attempt)

	return w.Republisher.Publish(d.Exchange, d.RoutingKey, false, false, amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: d.DeliveryMode,
		MessageId:    d.MessageId,
		Type:         d.Type,
		Timestamp:    d.Timestamp,
		Body:         d.Body,
	})
}

func (w *Worker) maxAttempts() int {
	if w.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return w.MaxAttempts
}

// deliveryAttempts reads AttemptsHeader. The AMQP table codec hands integers
// back as int32 or int64.
func deliveryAttempts(d amqp.Delivery) int {
	switch v := d.Headers[AttemptsHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// AuditHandler logs each event with the customer's current name.
func AuditHandler(repo repository.CustomerRepositoryInterface) EventHandler {
	return func(ctx context.Context, event queue.Event) error {
		customerID, ok := payloadInt(event.Payload, "customer_id")
		if !ok {
			log.Printf("📝 %s %s: %+v", event.Topic, event.ID, event.Payload)
			return nil
		}

		customer, err := repo.GetByID(ctx, customerID)
		if err != nil {
			return fmt.Errorf("audit %s: %w", event.ID, err)
		}

		log.Printf("📝 %s %s: customer #%d %s", event.Topic, event.ID, customer.ID, customer.FullName())
		return nil
	}
}

// payloadInt reads a numeric field from a JSON-decoded payload.
func payloadInt(payload any, key string) (int, bool) {
	fields, ok := payload.(map[string]any)
	if !ok {
		return 0, false
	}

	switch v := fields[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
