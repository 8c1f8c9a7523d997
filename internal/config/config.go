// internal/config/config.go
//
// Process configuration read from the environment.
// main loads .env (godotenv) first, so every value here may come from either.
//
// Variables and defaults:
//   PORT             5000
//   LOG_LEVEL        info
//   STORE            sqlite | memory
//   DB_PATH          ./instance/marbles.db
//   CLIENT_ORIGIN    http://localhost:5173
//   JWT_SECRET       dev_secret_change_me
//   SEAT_AUTH        off | required
//   SEED_SALT        local_dev_salt
//   REQUEST_TIMEOUT  10s

package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the server settings.
type Config struct {
	Port           string
	LogLevel       string
	Store          string
	DBPath         string
	ClientOrigin   string
	JWTSecret      string
	SeatAuth       bool
	SeedSalt       string
	RequestTimeout time.Duration
}

// Load reads the environment and validates enumerated values.
func Load() (Config, error) {
	c := Config{
		Port:         getEnv("PORT", "5000"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Store:        getEnv("STORE", "sqlite"),
		DBPath:       getEnv("DB_PATH", "./instance/marbles.db"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		JWTSecret:    getEnv("JWT_SECRET", "dev_secret_change_me"),
		SeedSalt:     getEnv("SEED_SALT", "local_dev_salt"),
	}

	switch c.Store {
	case "sqlite", "memory":
	default:
		return Config{}, fmt.Errorf("STORE: unknown backend %q", c.Store)
	}

	switch v := getEnv("SEAT_AUTH", "off"); v {
	case "off":
	case "required":
		c.SeatAuth = true
	default:
		return Config{}, fmt.Errorf("SEAT_AUTH: want off or required, got %q", v)
	}

	d, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "10s"))
	if err != nil || d <= 0 {
		return Config{}, fmt.Errorf("REQUEST_TIMEOUT: invalid duration %q", os.Getenv("REQUEST_TIMEOUT"))
	}
	c.RequestTimeout = d
	return c, nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
