package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/unclebandit/lunchly-backend/internal/db"
	appErrors "github.com/unclebandit/lunchly-backend/internal/errors"
	"github.com/unclebandit/lunchly-backend/internal/model"
)

// DefaultTopLimit is used when TopByReservationCount gets a non-positive limit.
const DefaultTopLimit = 10

// CustomerRepositoryInterface defines methods used by service
type CustomerRepositoryInterface interface {
	ListAll(ctx context.Context) ([]model.Customer, error)
	Search(ctx context.Context, term string) ([]model.Customer, error)
	TopByReservationCount(ctx context.Context, limit int) ([]model.CustomerRanking, error)
	GetByID(ctx context.Context, id int) (*model.Customer, error)
	Save(ctx context.Context, c *model.Customer) error
	ReservationsFor(ctx context.Context, c *model.Customer) ([]model.Reservation, error)
}

// ReservationFinder is the reservation collaborator a customer delegates to.
type ReservationFinder interface {
	GetReservationsForCustomer(ctx context.Context, customerID int) ([]model.Reservation, error)
}

// CustomerRepository is the concrete implementation
type CustomerRepository struct {
	DB           db.Querier
	Reservations ReservationFinder
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func selectCustomers() sq.SelectBuilder {
	return psql.
		Select("id", "first_name", "last_name", "phone", "notes").
		From("customers").
		OrderBy("last_name", "first_name")
}

// ListAll fetches every customer ordered by last then first name.
func (r *CustomerRepository) ListAll(ctx context.Context) ([]model.Customer, error) {
	query, args, err := selectCustomers().ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryCustomers(ctx, "list customers", query, args...)
}

// Search finds customers whose first or last name matches term under
// case-insensitive ILIKE. term is used as-is, so it may carry % and _
// wildcards. It is bound as a parameter, never spliced into the SQL.
func (r *CustomerRepository) Search(ctx context.Context, term string) ([]model.Customer, error) {
	query, args, err := selectCustomers().
		Where(sq.Or{
			sq.ILike{"first_name": term},
			sq.ILike{"last_name": term},
		}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryCustomers(ctx, "search customers", query, args...)
}

// TopByReservationCount ranks customers by how many reservations they hold.
// Ties fall back to last name, first name and id.
func (r *CustomerRepository) TopByReservationCount(ctx context.Context, limit int) ([]model.CustomerRanking, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	query := `
        SELECT c.id, c.first_name, c.last_name, COUNT(r.id) AS count
        FROM reservations AS r
        JOIN customers AS c ON r.customer_id = c.id
        GROUP BY c.id, c.first_name, c.last_name
        ORDER BY count DESC, c.last_name, c.first_name, c.id
        LIMIT $1
    `
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, appErrors.NewStorageError("rank customers", err)
	}
	defer rows.Close()

	rankings := []model.CustomerRanking{}
	for rows.Next() {
		var cr model.CustomerRanking
		if err := rows.Scan(&cr.ID, &cr.FirstName, &cr.LastName, &cr.Count); err != nil {
			return nil, appErrors.NewDecodeError("customer ranking", err)
		}
		rankings = append(rankings, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewStorageError("rank customers", err)
	}
	return rankings, nil
}

// GetByID fetches a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id int) (*model.Customer, error) {
	query := `
        SELECT id, first_name, last_name, phone, notes
        FROM customers
        WHERE id = $1
    `
	row := r.DB.QueryRowContext(ctx, query, id)
	if err := row.Err(); err != nil {
		return nil, appErrors.NewStorageError("get customer", err)
	}

	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCustomerNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

// Save inserts a new customer and assigns its ID, or updates every mutable
// field of an existing one. Concurrent updates are last write wins.
func (r *CustomerRepository) Save(ctx context.Context, c *model.Customer) error {
	if c.IsNew() {
		query := `
            INSERT INTO customers (first_name, last_name, phone, notes)
            VALUES ($1, $2, $3, $4)
            RETURNING id
        `
		var id int
		if err := r.DB.QueryRowContext(ctx, query, c.FirstName, c.LastName, nullString(c.Phone), c.Notes).Scan(&id); err != nil {
			return appErrors.NewStorageError("insert customer", err)
		}
		c.ID = id
		return nil
	}

	query := `
        UPDATE customers SET first_name=$1, last_name=$2, phone=$3, notes=$4
        WHERE id=$5
    `
	if _, err := r.DB.ExecContext(ctx, query, c.FirstName, c.LastName, nullString(c.Phone), c.Notes, c.ID); err != nil {
		return appErrors.NewStorageError("update customer", err)
	}
	return nil
}

// ReservationsFor returns whatever the reservation collaborator holds for c.
func (r *CustomerRepository) ReservationsFor(ctx context.Context, c *model.Customer) ([]model.Reservation, error) {
	return r.Reservations.GetReservationsForCustomer(ctx, c.ID)
}

func (r *CustomerRepository) queryCustomers(ctx context.Context, op, query string, args ...any) ([]model.Customer, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, appErrors.NewStorageError(op, err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewStorageError(op, err)
	}
	return customers, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(s scanner) (*model.Customer, error) {
	var (
		c     model.Customer
		phone sql.NullString
		notes sql.NullString
	)
	if err := s.Scan(&c.ID, &c.FirstName, &c.LastName, &phone, &notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, appErrors.NewDecodeError("customer", err)
	}
	c.Phone = phone.String
	c.Notes = notes.String
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns free text into an ILIKE pattern matching names
// that contain it. Wildcards in the text match literally.
func ContainsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
