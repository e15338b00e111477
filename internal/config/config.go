// Package config loads the bridge configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort string

	// TalonOneURL and TalonOneAPIKey intentionally default to empty strings:
	// the original integration treats an unset environment as-is and lets
	// requests fail at the remote end.
	TalonOneURL    string
	TalonOneAPIKey string
	ProgramID      int

	// PaymentMethod is the host payment-method code the order-placed handler
	// looks for before closing a session.
	PaymentMethod string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		TalonOneURL:     getEnv("TALON_ONE_URL", ""),
		TalonOneAPIKey:  getEnv("TALON_ONE_API_KEY", ""),
		ProgramID:       getEnvInt("TALON_ONE_PROGRAM_ID", 10),
		PaymentMethod:   getEnv("LOYALTY_PAYMENT_METHOD", "points"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
