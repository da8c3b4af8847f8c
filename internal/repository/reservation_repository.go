package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/lunchly-backend/internal/db"
	appErrors "github.com/unclebandit/lunchly-backend/internal/errors"
	"github.com/unclebandit/lunchly-backend/internal/model"
)

type ReservationRepositoryInterface interface {
	ReservationFinder
	Save(ctx context.Context, res *model.Reservation) error
}

type ReservationRepository struct {
	DB db.Querier
}

// GetReservationsForCustomer fetches a customer's reservations, earliest first.
func (r *ReservationRepository) GetReservationsForCustomer(ctx context.Context, customerID int) ([]model.Reservation, error) {
	query := `
        SELECT id, customer_id, num_guests, start_at, notes
        FROM reservations
        WHERE customer_id = $1
        ORDER BY start_at, id
    `
	rows, err := r.DB.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, appErrors.NewStorageError("list reservations", err)
	}
	defer rows.Close()

	reservations := []model.Reservation{}
	for rows.Next() {
		var (
			res   model.Reservation
			notes sql.NullString
		)
		if err := rows.Scan(&res.ID, &res.CustomerID, &res.NumGuests, &res.StartAt, &notes); err != nil {
			return nil, appErrors.NewDecodeError("reservation", err)
		}
		res.Notes = notes.String
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewStorageError("list reservations", err)
	}
	return reservations, nil
}

// Save inserts a new reservation and assigns its ID, or updates an existing one.
func (r *ReservationRepository) Save(ctx context.Context, res *model.Reservation) error {
	if res.IsNew() {
		query := `
            INSERT INTO reservations (customer_id, start_at, num_guests, notes)
            VALUES ($1, $2, $3, $4)
            RETURNING id
        `
		if err := r.DB.QueryRowContext(ctx, query, res.CustomerID, res.StartAt, res.NumGuests, res.Notes).Scan(&res.ID); err != nil {
			return appErrors.NewStorageError("insert reservation", err)
		}
		return nil
	}

	query := `
        UPDATE reservations SET start_at=$1, num_guests=$2, notes=$3
        WHERE id=$4
    `
	if _, err := r.DB.ExecContext(ctx, query, res.StartAt, res.NumGuests, res.Notes, res.ID); err != nil {
		return appErrors.NewStorageError("update reservation", err)
	}
	return nil
}

var _ ReservationRepositoryInterface = (*ReservationRepository)(nil)
