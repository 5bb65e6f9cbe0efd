package helper

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file into the process environment.
// A missing file is not an error, the environment is simply used as is.
func LoadEnv() {
	_ = godotenv.Load()
}

// GetEnvOrDefault returns environment variable value or default if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
