package controller_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamnest/models"
)

func TestRegisterCreatesPersonalTeam(t *testing.T) {
	app, db := setupTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "Password123!",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "body: %v", body)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	var user models.User
	require.NoError(t, db.Where("email = ?", "alice@example.com").First(&user).Error)

	personal, err := user.PersonalTeam(db)
	require.NoError(t, err)
	require.NotNil(t, personal)
	assert.Equal(t, "Alice's Team", personal.Name)
	assert.True(t, personal.PersonalTeam)

	// Registration points current_team_id at the personal team.
	require.NotNil(t, user.CurrentTeamID)
	assert.Equal(t, personal.ID, *user.CurrentTeamID)
}

func TestRegisterValidation(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name":     "Alice",
		"email":    "not-an-email",
		"password": "Password123!",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "short",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app, _ := setupTestApp(t)
	registerUser(t, app, "Alice", "alice@example.com")

	resp, _ := doJSON(t, app, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name":     "Other Alice",
		"email":    "alice@example.com",
		"password": "Password123!",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	app, _ := setupTestApp(t)
	registerUser(t, app, "Alice", "alice@example.com")

	resp, body := doJSON(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "Password123!",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])

	resp, _ = doJSON(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "WrongPassword!",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, fiber.MethodGet, "/api/v1/teams/", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetCurrentUser(t *testing.T) {
	app, _ := setupTestApp(t)
	token := registerUser(t, app, "Alice", "alice@example.com")

	resp, body := doJSON(t, app, fiber.MethodGet, "/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotNil(t, body["current_team"])
}

func TestChangePassword(t *testing.T) {
	app, _ := setupTestApp(t)
	token := registerUser(t, app, "Alice", "alice@example.com")

	resp, _ := doJSON(t, app, fiber.MethodPost, "/auth/change-password", token, map[string]string{
		"current_password": "WrongPassword!",
		"new_password":     "NewPassword123!",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodPost, "/auth/change-password", token, map[string]string{
		"current_password": "Password123!",
		"new_password":     "NewPassword123!",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Old password no longer works.
	resp, _ = doJSON(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "Password123!",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "NewPassword123!",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
