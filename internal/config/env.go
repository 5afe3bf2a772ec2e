package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// envFiles is ordered by precedence: godotenv never overrides a variable that
// is already set, so earlier files win.
var envFiles = []string{".env.local", ".env"}

// loadEnvFile loads every existing file of .env.local and .env. Variables
// already present in the process environment win, then .env.local, then .env.
func loadEnvFile() error {
	var existing []string
	for _, envPath := range envFiles {
		if _, err := os.Stat(envPath); err == nil {
			existing = append(existing, envPath)
		}
	}
	if len(existing) == 0 {
		return errors.New("no .env file found")
	}
	return godotenv.Load(existing...)
}
