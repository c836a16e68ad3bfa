package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func baseConfig() *Config {
	return &Config{
		Port:                       "8440",
		Env:                        "test",
		JWTSecret:                  "secure-secret-at-least-32-chars-long",
		DBPassword:                 "secure-password",
		DBSSLMode:                  "disable",
		RedisURL:                   "localhost:6379",
		DBConnMaxLifetimeMinutes:   1,
		SyncVisibleIntervalSeconds: 15,
		SyncHiddenIntervalSeconds:  60,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateSyncIntervals(t *testing.T) {
	c := baseConfig()
	c.SyncVisibleIntervalSeconds = 0
	assert.Error(t, c.Validate())

	c = baseConfig()
	c.SyncHiddenIntervalSeconds = 5 // below visible interval
	assert.Error(t, c.Validate())

	c = baseConfig()
	assert.NoError(t, c.Validate())
}

func TestConfig_ProductionSecretChecks(t *testing.T) {
	c := baseConfig()
	c.Env = "production"
	c.DBSSLMode = "require"
	c.JWTSecret = "change-me-in-production"
	assert.Error(t, c.Validate())

	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c.JWTSecret = "secure-secret-at-least-32-chars-long"
	c.DBPassword = "password"
	assert.Error(t, c.Validate())
}

func TestLoadConfig_SSLModeNormalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
}
