package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_CONFIG_KEY", "value")
	assert.Equal(t, "value", getEnv("TEST_CONFIG_KEY", "fallback"))
	assert.Equal(t, "fallback", getEnv("TEST_CONFIG_MISSING", "fallback"))
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_CONFIG_INT", "42")
	assert.Equal(t, 42, getEnvAsInt("TEST_CONFIG_INT", 7))

	t.Setenv("TEST_CONFIG_INT", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("TEST_CONFIG_INT", 7))

	assert.Equal(t, 7, getEnvAsInt("TEST_CONFIG_INT_MISSING", 7))
}

func TestMaskPassword(t *testing.T) {
	masked := maskPassword("host=db port=5432 password=hunter2 dbname=app")
	assert.NotContains(t, masked, "hunter2")
	assert.Contains(t, masked, "password=*****")

	// Password at the end of the DSN.
	masked = maskPassword("host=db password=hunter2")
	assert.Equal(t, "host=db password=*****", masked)

	// No password segment passes through untouched.
	assert.Equal(t, "host=db", maskPassword("host=db"))
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	prev := AppConfig
	t.Cleanup(func() { AppConfig = prev })

	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")
	assert.Error(t, LoadConfig())

	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, LoadConfig())
	assert.Equal(t, "test-secret", AppConfig.JWTSecret)
	assert.Equal(t, "development", AppConfig.Environment)
}
