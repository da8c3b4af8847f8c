package queue

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TopicCustomerSaved    = "customer.saved"
	TopicReservationSaved = "reservation.saved"
)

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(event Event) error) error
}

// Event is the envelope every published payload travels in.
type Event struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func NewEvent(topic string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// InMemoryQueue dispatches events to in-process subscribers with retry.
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]func(event Event) error
	maxRetries int
	backoff    time.Duration
	wg         sync.WaitGroup
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(event Event) error),
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
}

// Publish sends an event to all subscribers of topic. Events on a topic
// nobody listens to are dropped.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return nil
	}

	event := NewEvent(topic, payload)
	for _, handler := range handlers {
		q.wg.Add(1)
		go q.process(handler, event)
	}

	return nil
}

// process retries a failing handler with linear backoff.
func (q *InMemoryQueue) process(handler func(event Event) error, event Event) {
	defer q.wg.Done()

	for attempt := 0; ; attempt++ {
		err := handler(event)
		if err == nil {
			return
		}

		if attempt >= q.maxRetries {
			log.Printf("❌ Event %s on %s permanently failed after %d retries: %v", event.ID, event.Topic, q.maxRetries, err)
			return
		}

		log.Printf("⚠️ Event %s on %s failed (attempt %d/%d): %v", event.ID, event.Topic, attempt+1, q.maxRetries, err)
		time.Sleep(time.Duration(attempt+1) * q.backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(event Event) error) error {
	if handler == nil {
		return fmt.Errorf("nil handler for topic %s", topic)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every dispatched event has been handled.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

// StartAuditSubscriber logs every customer and reservation change.
func StartAuditSubscriber(q Queue) error {
	for _, topic := range []string{TopicCustomerSaved, TopicReservationSaved} {
		if err := q.Subscribe(topic, func(event Event) error {
			log.Printf("📝 %s %s: %+v", event.Topic, event.ID, event.Payload)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}
