// internal/model/reservation.go
package model

import (
	"time"

	appErrors "github.com/unclebandit/lunchly-backend/internal/errors"
)

type Reservation struct {
	ID         int       `db:"id" json:"id"`
	CustomerID int       `db:"customer_id" json:"customer_id"`
	NumGuests  int       `db:"num_guests" json:"num_guests"`
	StartAt    time.Time `db:"start_at" json:"start_at"`
	Notes      string    `db:"notes" json:"notes"`
}

func (r *Reservation) IsNew() bool {
	return r.ID == 0
}

// Validate mirrors the fewer_guests check constraint on the table.
func (r *Reservation) Validate() error {
	if r.NumGuests < 1 {
		return appErrors.NewValidationError("num_guests", "must be at least 1")
	}
	if r.StartAt.IsZero() {
		return appErrors.NewValidationError("start_at", "is required")
	}
	return nil
}
