package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/unclebandit/lunchly-backend/internal/cli"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
