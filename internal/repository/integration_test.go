//go:build integration

package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/unclebandit/lunchly-backend/internal/db"
	appErrors "github.com/unclebandit/lunchly-backend/internal/errors"
	"github.com/unclebandit/lunchly-backend/internal/model"
	"github.com/unclebandit/lunchly-backend/internal/repository"
)

const (
	defaultVersion = "16-alpine"

	databaseImage    = "postgres"
	databaseName     = "lunchly"
	databaseUsername = "lunchly"
	databasePassword = "lunchly"
)

var (
	seedDir = filepath.Join("..", "..", "seed")
	testDB  *sql.DB
)

// TestMain runs against LUNCHLY_TEST_DATABASE_URL when set and starts a
// throwaway Postgres container otherwise.
func TestMain(m *testing.M) {
	ctx := context.Background()

	dsn := os.Getenv("LUNCHLY_TEST_DATABASE_URL")
	var container testcontainers.Container

	if dsn == "" {
		var err error
		container, dsn, err = startPostgres(ctx)
		if err != nil {
			log.Fatal("failed to start postgres: ", err)
		}
	}

	conn, err := db.Open(ctx, "pgx", dsn)
	if err != nil {
		log.Fatal(err)
	}
	testDB = conn

	if err := execFile(ctx, "schema.sql"); err != nil {
		log.Fatal(err)
	}

	code := m.Run()

	_ = conn.Close()
	if container != nil {
		_ = container.Terminate(ctx)
	}
	os.Exit(code)
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	version := os.Getenv("POSTGRES_VERSION")
	if version == "" {
		version = defaultVersion
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        fmt.Sprintf("%s:%s", databaseImage, version),
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"LC_ALL":            "C.UTF-8",
				"POSTGRES_DB":       databaseName,
				"POSTGRES_USER":     databaseUsername,
				"POSTGRES_PASSWORD": databasePassword,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, "", err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, "", err
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", databaseUsername, databasePassword, host, port.Port(), databaseName)
	return container, dsn, nil
}

func execFile(ctx context.Context, name string) error {
	content, err := os.ReadFile(filepath.Join(seedDir, name))
	if err != nil {
		return err
	}
	if _, err := testDB.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute %s: %w", name, err)
	}
	return nil
}

func resetTables(t *testing.T) (*repository.CustomerRepository, *repository.ReservationRepository) {
	t.Helper()

	_, err := testDB.ExecContext(context.Background(), `TRUNCATE reservations, customers RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	reservations := &repository.ReservationRepository{DB: testDB}
	return &repository.CustomerRepository{DB: testDB, Reservations: reservations}, reservations
}

func saveCustomers(t *testing.T, repo *repository.CustomerRepository, names ...[2]string) map[string]*model.Customer {
	t.Helper()

	byLast := map[string]*model.Customer{}
	for _, n := range names {
		c := &model.Customer{FirstName: n[0], LastName: n[1]}
		require.NoError(t, repo.Save(context.Background(), c))
		byLast[n[1]] = c
	}
	return byLast
}

func TestIntegration_ListAllSortedForAnyInsertionOrder(t *testing.T) {
	orders := [][][2]string{
		{{"Grace", "Hopper"}, {"Ada", "Lovelace"}, {"Alan", "Hopper"}, {"Charles", "Babbage"}},
		{{"Charles", "Babbage"}, {"Alan", "Hopper"}, {"Ada", "Lovelace"}, {"Grace", "Hopper"}},
		{{"Ada", "Lovelace"}, {"Grace", "Hopper"}, {"Charles", "Babbage"}, {"Alan", "Hopper"}},
	}

	for i, order := range orders {
		t.Run(fmt.Sprintf("order %d", i), func(t *testing.T) {
			repo, _ := resetTables(t)
			for _, n := range order {
				require.NoError(t, repo.Save(context.Background(), &model.Customer{FirstName: n[0], LastName: n[1]}))
			}

			all, err := repo.ListAll(context.Background())
			require.NoError(t, err)

			names := make([]string, 0, len(all))
			for _, c := range all {
				names = append(names, c.FullName())
			}
			assert.Equal(t, []string{"Charles Babbage", "Alan Hopper", "Grace Hopper", "Ada Lovelace"}, names)
		})
	}
}

func TestIntegration_TopByReservationCount(t *testing.T) {
	repo, reservations := resetTables(t)
	ctx := context.Background()

	// D is inserted first so insertion order cannot explain the result.
	customers := saveCustomers(t, repo, [2]string{"D", "D"}, [2]string{"C", "C"}, [2]string{"B", "B"}, [2]string{"A", "A"})
	start := time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC)

	for last, count := range map[string]int{"A": 5, "B": 5, "C": 3, "D": 1} {
		for i := 0; i < count; i++ {
			res := &model.Reservation{CustomerID: customers[last].ID, NumGuests: 2, StartAt: start.AddDate(0, 0, i)}
			require.NoError(t, reservations.Save(ctx, res))
		}
	}

	top, err := repo.TopByReservationCount(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, []model.CustomerRanking{
		{ID: customers["A"].ID, FirstName: "A", LastName: "A", Count: 5},
		{ID: customers["B"].ID, FirstName: "B", LastName: "B", Count: 5},
		{ID: customers["C"].ID, FirstName: "C", LastName: "C", Count: 3},
	}, top)

	all, err := repo.TopByReservationCount(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestIntegration_SaveRoundTrip(t *testing.T) {
	repo, _ := resetTables(t)
	ctx := context.Background()

	ada := &model.Customer{FirstName: "Ada", LastName: "Lovelace", Notes: "window table"}
	require.NoError(t, repo.Save(ctx, ada))
	require.Positive(t, ada.ID)

	got, err := repo.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, *ada, *got)

	// Saving an unchanged fetched record leaves storage as it was.
	require.NoError(t, repo.Save(ctx, got))

	again, err := repo.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, *ada, *again)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	got.Phone = "555-0100"
	require.NoError(t, repo.Save(ctx, got))

	updated, err := repo.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0100", updated.Phone)

	_, err = repo.GetByID(ctx, ada.ID+100)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestIntegration_SearchUsesTermAsIs(t *testing.T) {
	repo, _ := resetTables(t)
	ctx := context.Background()

	saveCustomers(t, repo, [2]string{"Ada", "Lovelace"}, [2]string{"Adam", "Smith"}, [2]string{"Grace", "Hopper"})

	exact, err := repo.Search(ctx, "ada")
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "Ada Lovelace", exact[0].FullName())

	prefix, err := repo.Search(ctx, "Lo%")
	require.NoError(t, err)
	require.Len(t, prefix, 1)
	assert.Equal(t, "Lovelace", prefix[0].LastName)

	contains, err := repo.Search(ctx, repository.ContainsPattern("AD"))
	require.NoError(t, err)
	assert.Len(t, contains, 2)

	injected, err := repo.Search(ctx, "x' OR '1'='1")
	require.NoError(t, err)
	assert.Empty(t, injected)

	_, err = testDB.ExecContext(ctx, `SELECT 1 FROM customers LIMIT 1`)
	assert.NoError(t, err, "customers table must survive the injection attempt")
}

func TestIntegration_ReservationKeepsInstant(t *testing.T) {
	repo, reservations := resetTables(t)
	ctx := context.Background()

	customers := saveCustomers(t, repo, [2]string{"Ada", "Lovelace"})

	startAt := time.Date(2026, 10, 24, 19, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	require.NoError(t, reservations.Save(ctx, &model.Reservation{CustomerID: customers["Lovelace"].ID, NumGuests: 2, StartAt: startAt}))

	got, err := repo.ReservationsFor(ctx, customers["Lovelace"])
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].StartAt.Equal(startAt), "got %s, want %s", got[0].StartAt, startAt)
}

func TestIntegration_ReservationForUnknownCustomerIsConstraintViolation(t *testing.T) {
	_, reservations := resetTables(t)

	err := reservations.Save(context.Background(), &model.Reservation{CustomerID: 999, NumGuests: 2, StartAt: time.Now()})

	require.Error(t, err)
	assert.True(t, appErrors.IsConstraintViolation(err))
}

func TestIntegration_SeedIsRepeatable(t *testing.T) {
	repo, _ := resetTables(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, execFile(ctx, "customers.sql"))
		require.NoError(t, execFile(ctx, "reservations.sql"))
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	top, err := repo.TopByReservationCount(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Ada Lovelace", top[0].FullName())
	assert.Equal(t, 4, top[0].Count)
}
