package utils

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv reads a .env file into the process environment. A missing file is
// fine, deployments set real environment variables instead.
func LoadEnv() error {
	_ = godotenv.Load()
	return nil
}

// GetEnv returns the environment variable's value, or fallback when unset.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvInt is GetEnv for integers. Unset or non-numeric values yield
// fallback.
func GetEnvInt(key string, fallback int) int {
	if value, err := strconv.Atoi(GetEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
