// internal/controller/customer_controller.go
package controller

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/lunchly-backend/internal/errors"
	"github.com/unclebandit/lunchly-backend/internal/model"
	"github.com/unclebandit/lunchly-backend/internal/service"
)

type CustomerController struct {
	CustomerService *service.CustomerService
}

// Routes mounts the customer endpoints on r.
func (c *CustomerController) Routes(r chi.Router) {
	r.Get("/health", c.Health)

	r.Route("/customers", func(r chi.Router) {
		r.Get("/", c.ListCustomers)
		r.Post("/", c.CreateCustomer)
		r.Get("/top", c.TopCustomers)
		r.Get("/{id}", c.GetCustomer)
		r.Put("/{id}", c.UpdateCustomer)
		r.Get("/{id}/reservations", c.ListReservations)
		r.Post("/{id}/reservations", c.AddReservation)
	})
}

type customerPayload struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Notes     *string `json:"notes"`
}

func (p customerPayload) applyTo(cust *model.Customer) {
	if p.FirstName != nil {
		cust.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		cust.LastName = *p.LastName
	}
	if p.Phone != nil {
		cust.Phone = *p.Phone
	}
	if p.Notes != nil {
		cust.Notes = *p.Notes
	}
}

func (c *CustomerController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListCustomers lists everyone, or filters by ?search=.
func (c *CustomerController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := c.CustomerService.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": customers})
}

func (c *CustomerController) TopCustomers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	rankings, err := c.CustomerService.Top(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rankings})
}

func (c *CustomerController) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var body customerPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	customer := &model.Customer{}
	body.applyTo(customer)

	if err := c.CustomerService.SaveCustomer(r.Context(), customer); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

// GetCustomer returns the customer with its reservations.
func (c *CustomerController) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	details, err := c.CustomerService.Details(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// UpdateCustomer overlays the supplied fields on the stored customer.
func (c *CustomerController) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	var body customerPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	customer, err := c.CustomerService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	body.applyTo(customer)

	if err := c.CustomerService.SaveCustomer(r.Context(), customer); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (c *CustomerController) ListReservations(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	reservations, err := c.CustomerService.Reservations(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": reservations})
}

func (c *CustomerController) AddReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	var body struct {
		NumGuests int    `json:"num_guests"`
		StartAt   string `json:"start_at"`
		Notes     string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	startAt, err := time.Parse(time.RFC3339, body.StartAt)
	if err != nil {
		http.Error(w, "start_at must be RFC3339", http.StatusBadRequest)
		return
	}

	res := &model.Reservation{
		NumGuests: body.NumGuests,
		StartAt:   startAt.UTC(),
		Notes:     body.Notes,
	}
	if err := c.CustomerService.AddReservation(r.Context(), id, res); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func customerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("⚠️ failed to encode response:", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := appErrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		log.Println("❌ request failed:", err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	if status == http.StatusConflict {
		log.Println("⚠️ constraint violation:", err)
		writeJSON(w, status, map[string]string{"error": "conflicts with existing data"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
