// internal/model/customer.go
package model

import (
	"strings"

	appErrors "github.com/unclebandit/lunchly-backend/internal/errors"
)

// Customer of the restaurant. ID is zero until the first save.
type Customer struct {
	ID        int    `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Phone     string `db:"phone" json:"phone"`
	Notes     string `db:"notes" json:"notes"`
}

// FullName is "first last".
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// IsNew reports whether the customer has not been persisted yet.
func (c *Customer) IsNew() bool {
	return c.ID == 0
}

// Validate checks the fields required for display and ordering.
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return appErrors.NewValidationError("first_name", "is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return appErrors.NewValidationError("last_name", "is required")
	}
	return nil
}

// CustomerRanking is a customer with the number of reservations they hold.
type CustomerRanking struct {
	ID        int    `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Count     int    `db:"count" json:"count"`
}

func (r *CustomerRanking) FullName() string {
	return r.FirstName + " " + r.LastName
}
