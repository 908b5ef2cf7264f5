package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"teamnest/config"
	"teamnest/models"
	"teamnest/routes"
)

// setupTestApp wires the full route tree against an in-memory database.
// The config globals are what the auth controller and JWT middleware
// read, so they point at the test database for the duration.
func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Migrate(db))

	prevDB := config.DB
	prevConfig := config.AppConfig
	config.DB = db
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.RateLimitAuth = 1000
	config.AppConfig.Redis.Enabled = false
	t.Cleanup(func() {
		config.DB = prevDB
		config.AppConfig = prevConfig
	})

	app := fiber.New()
	routes.SetupRoutes(app, db)
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

// registerUser registers an account and returns its access token.
func registerUser(t *testing.T, app *fiber.App, name, email string) string {
	t.Helper()

	resp, body := doJSON(t, app, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "Password123!",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "register %s: %v", email, body)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func dataOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "expected data object, got %v", body)
	return data
}

func idOf(t *testing.T, data map[string]interface{}) uint {
	t.Helper()
	id, ok := data["id"].(float64)
	require.True(t, ok, "expected numeric id, got %v", data)
	return uint(id)
}

func teamPath(teamID uint, suffix string) string {
	return fmt.Sprintf("/api/v1/teams/%d%s", teamID, suffix)
}
