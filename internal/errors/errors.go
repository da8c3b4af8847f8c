// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrCustomerNotFound is returned when no customer row matches an id.
type ErrCustomerNotFound struct {
	CustomerID int
}

func (e *ErrCustomerNotFound) Error() string {
	return fmt.Sprintf("No such customer: %d", e.CustomerID)
}

// Status is the HTTP status the calling layer should answer with.
func (e *ErrCustomerNotFound) Status() int {
	return http.StatusNotFound
}

// Helper constructor
func NewCustomerNotFound(id int) error {
	return &ErrCustomerNotFound{CustomerID: id}
}

// IsNotFound reports whether err is (or wraps) a not-found error.
func IsNotFound(err error) bool {
	var nf *ErrCustomerNotFound
	return errors.As(err, &nf)
}

// StorageError wraps any failure surfaced by the query executor.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsConstraintViolation reports whether err carries an integrity constraint
// violation (SQLSTATE class 23) from either postgres driver.
func IsConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return len(pgErr.Code) == 5 && pgErr.Code[:2] == "23"
	}

	return false
}

// DecodeError is returned when a row does not scan into its typed record.
type DecodeError struct {
	Entity string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s row: %v", e.Entity, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func NewDecodeError(entity string, err error) error {
	return &DecodeError{Entity: entity, Err: err}
}

// ValidationError reports a user supplied field that cannot be stored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StatusCode maps an error onto the HTTP status a handler should send.
func StatusCode(err error) int {
	var withStatus interface{ Status() int }
	if errors.As(err, &withStatus) {
		return withStatus.Status()
	}
	if IsValidation(err) {
		return http.StatusBadRequest
	}
	if IsConstraintViolation(err) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
