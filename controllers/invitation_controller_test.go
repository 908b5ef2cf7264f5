package controller_test

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"teamnest/models"
)

func inviteEmail(t *testing.T, app *fiber.App, token string, teamID uint, email string) map[string]interface{} {
	t.Helper()
	resp, body := doJSON(t, app, fiber.MethodPost, teamPath(teamID, "/invitations"), token, map[string]interface{}{
		"email": email,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "invite %s: %v", email, body)
	return dataOf(t, body)
}

func TestCreateInvitation(t *testing.T) {
	app, _ := setupTestApp(t)
	aliceToken := registerUser(t, app, "Alice", "alice@example.com")
	teamID := createTeamViaAPI(t, app, aliceToken, "Design Squad")

	data := inviteEmail(t, app, aliceToken, teamID, "bob@example.com")
	tokenValue, _ := data["token"].(string)
	assert.Len(t, tokenValue, models.InvitationTokenLength)
	assert.Equal(t, "member", data["role"])

	// Second pending invitation for the same address conflicts.
	resp, _ := doJSON(t, app, fiber.MethodPost, teamPath(teamID, "/invitations"), aliceToken, map[string]interface{}{
		"email": "bob@example.com",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCreateInvitationForExistingMember(t *testing.T) {
	app, db := setupTestApp(t)
	aliceToken := registerUser(t, app, "Alice", "alice@example.com")
	registerUser(t, app, "Bob", "bob@example.com")
	teamID := createTeamViaAPI(t, app, aliceToken, "Design Squad")

	bob := userByEmail(t, db, "bob@example.com")
	_, _ = doJSON(t, app, fiber.MethodPost, teamPath(teamID, "/members"), aliceToken, map[string]interface{}{
		"user_id": bob.ID,
	})

	resp, _ := doJSON(t, app, fiber.MethodPost, teamPath(teamID, "/invitations"), aliceToken, map[string]interface{}{
		"email": "bob@example.com",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCreateInvitationBlockedBySettings(t *testing.T) {
	app, db := setupTestApp(t)
	aliceToken := registerUser(t, app, "Alice", "alice@example.com")
	teamID := createTeamViaAPI(t, app, aliceToken, "Design Squad")

	require.NoError(t, db.Model(&models.Team{}).Where("id = ?", teamID).
		Update("settings", datatypes.JSONMap{"allow_invitations": false}).Error)

	resp, _ := doJSON(t, app, fiber.MethodPost, teamPath(teamID, "/invitations"), aliceToken, map[string]interface{}{
		"email": "bob@example.com",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAcceptInvitation(t *testing.T) {
	app, db := setupTestApp(t)
	aliceToken := registerUser(t, app, "Alice", "alice@example.com")
	bobToken := registerUser(t, app, "Bob", "bob@example.com")
	carolToken := registerUser(t, app, "Carol", "carol@example.com")
	teamID := createTeamViaAPI(t, app, aliceToken, "Design Squad")

	data := inviteEmail(t, app, aliceToken, teamID, "bob@example.com")
	inviteToken := data["token"].(string)

	// The invitation is bound to Bob's address; Carol cannot use it.
	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/invitations/"+inviteToken+"/accept", carolToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/v1/invitations/"+inviteToken+"/accept", bobToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "accept: %v", body)
	assert.Equal(t, float64(teamID), dataOf(t, body)["id"])

	bob := userByEmail(t, db, "bob@example.com")
	var member models.TeamMember
	require.NoError(t, db.Where("team_id = ? AND user_id = ?", teamID, bob.ID).First(&member).Error)
	assert.Equal(t, models.RoleMember, member.Role)

	// Consumed: a second accept finds nothing.
	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/invitations/"+inviteToken+"/accept", bobToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAcceptExpiredInvitation(t *testing.T) {
	app, db := setupTestApp(t)
	aliceToken := registerUser(t, app, "Alice", "alice@example.com")
	bobToken := registerUser(t, app, "Bob", "bob@example.com")
	teamID := createTeamViaAPI(t, app, aliceToken, "Design Squad")

	alice := userByEmail(t, db, "alice@example.com")
	invitation := models.TeamInvitation{
		TeamID:    teamID,
		Email:     "bob@example.com",
		Role:      models.RoleMember,
		InvitedBy: alice.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&invitation).Error)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/invitations/"+invitation.Token+"/accept", bobToken, nil)
	assert.Equal(t, fiber.StatusGone, resp.StatusCode)

	// Expired accept leaves both the invitation and membership untouched.
	bob := userByEmail(t, db, "bob@example.com")
	var members int64
	db.Model(&models.TeamMember{}).Where("team_id = ? AND user_id = ?", teamID, bob.ID).Count(&members)
	assert.Zero(t, members)
	var invitations int64
	db.Model(&models.TeamInvitation{}).Where("id = ?", invitation.ID).Count(&invitations)
	assert.EqualValues(t, 1, invitations)
}

func TestRejectInvitation(t *testing.T) {
	app, db := setupTestApp(t)
	aliceToken := registerUser(t, app, "Alice", "alice@example.com")
	bobToken := registerUser(t, app, "Bob", "bob@example.com")
	teamID := createTeamViaAPI(t, app, aliceToken, "Design Squad")

	data := inviteEmail(t, app, aliceToken, teamID, "bob@example.com")
	inviteToken := data["token"].(string)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/invitations/"+inviteToken+"/reject", bobToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	bob := userByEmail(t, db, "bob@example.com")
	var members int64
	db.Model(&models.TeamMember{}).Where("team_id = ? AND user_id = ?", teamID, bob.ID).Count(&members)
	assert.Zero(t, members)
	var invitations int64
	db.Model(&models.TeamInvitation{}).Where("team_id = ?", teamID).Count(&invitations)
	assert.Zero(t, invitations)
}

func TestListInvitationsFlagsExpired(t *testing.T) {
	app, db := setupTestApp(t)
	aliceToken := registerUser(t, app, "Alice", "alice@example.com")
	teamID := createTeamViaAPI(t, app, aliceToken, "Design Squad")

	inviteEmail(t, app, aliceToken, teamID, "fresh@example.com")

	alice := userByEmail(t, db, "alice@example.com")
	stale := models.TeamInvitation{
		TeamID:    teamID,
		Email:     "stale@example.com",
		InvitedBy: alice.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&stale).Error)

	resp, body := doJSON(t, app, fiber.MethodGet, teamPath(teamID, "/invitations"), aliceToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	views, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, views, 2)

	expiredByEmail := map[string]bool{}
	for _, v := range views {
		view := v.(map[string]interface{})
		expiredByEmail[view["email"].(string)] = view["expired"].(bool)
	}
	assert.False(t, expiredByEmail["fresh@example.com"])
	assert.True(t, expiredByEmail["stale@example.com"])
}

func TestInvitationRequiresManageMembers(t *testing.T) {
	app, db := setupTestApp(t)
	aliceToken := registerUser(t, app, "Alice", "alice@example.com")
	bobToken := registerUser(t, app, "Bob", "bob@example.com")
	teamID := createTeamViaAPI(t, app, aliceToken, "Design Squad")

	bob := userByEmail(t, db, "bob@example.com")
	_, _ = doJSON(t, app, fiber.MethodPost, teamPath(teamID, "/members"), aliceToken, map[string]interface{}{
		"user_id": bob.ID,
		"role":    "member",
	})

	// Plain members cannot invite.
	resp, _ := doJSON(t, app, fiber.MethodPost, teamPath(teamID, "/invitations"), bobToken, map[string]interface{}{
		"email": "carol@example.com",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodGet, teamPath(teamID, "/invitations"), bobToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
