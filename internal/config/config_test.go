package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "", cfg.TalonOneURL)
	assert.Equal(t, "", cfg.TalonOneAPIKey)
	assert.Equal(t, 10, cfg.ProgramID)
	assert.Equal(t, "points", cfg.PaymentMethod)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TALON_ONE_URL", "https://acme.talon.one")
	t.Setenv("TALON_ONE_API_KEY", "ApiKey-v1 secret")
	t.Setenv("TALON_ONE_PROGRAM_ID", "25")
	t.Setenv("LOYALTY_PAYMENT_METHOD", "loyalty")

	cfg := Load()

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "https://acme.talon.one", cfg.TalonOneURL)
	assert.Equal(t, "ApiKey-v1 secret", cfg.TalonOneAPIKey)
	assert.Equal(t, 25, cfg.ProgramID)
	assert.Equal(t, "loyalty", cfg.PaymentMethod)
}

func TestLoad_BadProgramIDFallsBack(t *testing.T) {
	t.Setenv("TALON_ONE_PROGRAM_ID", "not-a-number")

	assert.Equal(t, 10, Load().ProgramID)
}
