//cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/unclebandit/lunchly-backend/internal/config"
	"github.com/unclebandit/lunchly-backend/internal/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	path := os.Getenv("LUNCHLY_CONFIG")
	if path == "" {
		path = "lunchly.yaml"
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		log.Fatal(err)
	}

	dsn, err := cfg.GetDatabaseURL(nil)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.GetDriver(nil), dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	seedFiles := []string{
		"schema.sql",
		"customers.sql",
		"reservations.sql",
	}

	for _, name := range seedFiles {
		file := filepath.Join(cfg.GetSeedDir(), name)
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", file, err)
		}

		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			log.Fatalf("failed to execute %s: %v", file, err)
		}
		fmt.Printf("Seeded: %s\n", file)
	}

	fmt.Println("Database seeding completed successfully!")
}
