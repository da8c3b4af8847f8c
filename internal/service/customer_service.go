// internal/service/customer_service.go
package service

import (
	"context"
	"log"
	"strings"

	"github.com/unclebandit/lunchly-backend/internal/model"
	"github.com/unclebandit/lunchly-backend/internal/queue"
	"github.com/unclebandit/lunchly-backend/internal/repository"
)

// Publisher is the part of a queue the service needs.
type Publisher interface {
	Publish(topic string, payload any) error
}

type CustomerService struct {
	CustomerRepo    repository.CustomerRepositoryInterface
	ReservationRepo repository.ReservationRepositoryInterface
	Queue           Publisher
}

// CustomerDetails is a customer together with its reservations.
type CustomerDetails struct {
	model.Customer
	FullName     string              `json:"full_name"`
	Reservations []model.Reservation `json:"reservations"`
}

// List returns every customer, or only the ones whose first or last name
// contains term when it is not blank.
func (s *CustomerService) List(ctx context.Context, term string) ([]model.Customer, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.CustomerRepo.ListAll(ctx)
	}
	return s.CustomerRepo.Search(ctx, repository.ContainsPattern(term))
}

func (s *CustomerService) Top(ctx context.Context, limit int) ([]model.CustomerRanking, error) {
	return s.CustomerRepo.TopByReservationCount(ctx, limit)
}

func (s *CustomerService) Get(ctx context.Context, id int) (*model.Customer, error) {
	return s.CustomerRepo.GetByID(ctx, id)
}

func (s *CustomerService) Details(ctx context.Context, id int) (*CustomerDetails, error) {
	customer, err := s.CustomerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reservations, err := s.CustomerRepo.ReservationsFor(ctx, customer)
	if err != nil {
		return nil, err
	}

	return &CustomerDetails{
		Customer:     *customer,
		FullName:     customer.FullName(),
		Reservations: reservations,
	}, nil
}

// Reservations lists a customer's reservations, failing with not found for
// an unknown customer.
func (s *CustomerService) Reservations(ctx context.Context, customerID int) ([]model.Reservation, error) {
	customer, err := s.CustomerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.CustomerRepo.ReservationsFor(ctx, customer)
}

// SaveCustomer validates and persists c, then announces the change.
func (s *CustomerService) SaveCustomer(ctx context.Context, c *model.Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}

	created := c.IsNew()
	if err := s.CustomerRepo.Save(ctx, c); err != nil {
		return err
	}

	s.publish(queue.TopicCustomerSaved, map[string]any{
		"customer_id": c.ID,
		"created":     created,
	})
	return nil
}

// AddReservation books res for an existing customer.
func (s *CustomerService) AddReservation(ctx context.Context, customerID int, res *model.Reservation) error {
	if _, err := s.CustomerRepo.GetByID(ctx, customerID); err != nil {
		return err
	}

	res.CustomerID = customerID
	if err := res.Validate(); err != nil {
		return err
	}

	if err := s.ReservationRepo.Save(ctx, res); err != nil {
		return err
	}

	s.publish(queue.TopicReservationSaved, map[string]any{
		"reservation_id": res.ID,
		"customer_id":    customerID,
	})
	return nil
}

func (s *CustomerService) publish(topic string, payload any) {
	if s.Queue == nil {
		return
	}
	if err := s.Queue.Publish(topic, payload); err != nil {
		log.Println("⚠️ failed to publish", topic, ":", err)
	}
}
