// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"go.nhat.io/otelsql"
	"go.opentelemetry.io/otel/attribute"
)

// Querier is the query executor the repositories run statements through.
// *sql.DB and *sql.Tx both satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var _ Querier = (*sql.DB)(nil)

// Open registers an instrumented wrapper around driverName ("postgres" or
// "pgx"), opens the pool and pings it.
func Open(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	wrapped, err := otelsql.Register(driverName,
		otelsql.AllowRoot(),
		otelsql.TraceQueryWithoutArgs(),
		otelsql.TraceRowsClose(),
		otelsql.TraceRowsAffected(),
		otelsql.WithSystem(attribute.String("db.system", "postgresql")),
		otelsql.WithDatabaseName("lunchly"),
	)
	if err != nil {
		return nil, fmt.Errorf("could not register otelsql: %w", err)
	}

	conn, err := sql.Open(wrapped, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	if err := otelsql.RecordStats(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("could not record db stats: %w", err)
	}

	log.Printf("✅ Connected to database (driver %s)", driverName)
	return conn, nil
}
