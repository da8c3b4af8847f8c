package appErrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/unclebandit/lunchly-backend/internal/errors"
)

func TestCustomerNotFound(t *testing.T) {
	err := appErrors.NewCustomerNotFound(42)

	assert.EqualError(t, err, "No such customer: 42")
	assert.True(t, appErrors.IsNotFound(err))
	assert.True(t, appErrors.IsNotFound(fmt.Errorf("load: %w", err)))
	assert.False(t, appErrors.IsNotFound(errors.New("boom")))
	assert.Equal(t, http.StatusNotFound, appErrors.StatusCode(err))
}

func TestStorageErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := appErrors.NewStorageError("list customers", cause)

	assert.ErrorIs(t, err, cause)
	assert.EqualError(t, err, "storage: list customers: connection refused")
	assert.Equal(t, http.StatusInternalServerError, appErrors.StatusCode(err))
}

func TestIsConstraintViolation(t *testing.T) {
	testCases := []struct {
		scenario string
		err      error
		expected bool
	}{
		{
			scenario: "pq foreign key violation",
			err:      appErrors.NewStorageError("save", &pq.Error{Code: "23503"}),
			expected: true,
		},
		{
			scenario: "pq syntax error",
			err:      &pq.Error{Code: "42601"},
			expected: false,
		},
		{
			scenario: "pgx check violation",
			err:      appErrors.NewStorageError("save", &pgconn.PgError{Code: "23514"}),
			expected: true,
		},
		{
			scenario: "plain error",
			err:      errors.New("boom"),
			expected: false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.scenario, func(t *testing.T) {
			assert.Equal(t, tc.expected, appErrors.IsConstraintViolation(tc.err))
		})
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, appErrors.StatusCode(appErrors.NewValidationError("first_name", "is required")))
	assert.Equal(t, http.StatusConflict, appErrors.StatusCode(&pq.Error{Code: "23505"}))
	assert.Equal(t, http.StatusInternalServerError, appErrors.StatusCode(appErrors.NewDecodeError("customer", errors.New("bad"))))
}
