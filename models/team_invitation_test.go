package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvitationDefaultsOnCreate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	freezeTime(t, now)

	db := newTestDB(t)
	owner := createUser(t, db, "alice")
	team := createTeam(t, db, owner, "acme")

	invitation := TeamInvitation{
		TeamID:    team.ID,
		Email:     "carol@example.com",
		Role:      RoleMember,
		InvitedBy: owner.ID,
	}
	require.NoError(t, db.Create(&invitation).Error)

	assert.Len(t, invitation.Token, InvitationTokenLength)
	assert.True(t, invitation.ExpiresAt.Equal(now.Add(InvitationTTL)))
	assert.False(t, invitation.IsExpired())
}

func TestInvitationKeepsExplicitTokenAndExpiry(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "alice")
	team := createTeam(t, db, owner, "acme")

	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	invitation := TeamInvitation{
		TeamID:    team.ID,
		Email:     "carol@example.com",
		Role:      RoleViewer,
		Token:     "fixed-token-for-seeding-0123456789ab",
		InvitedBy: owner.ID,
		ExpiresAt: expires,
	}
	require.NoError(t, db.Create(&invitation).Error)

	assert.Equal(t, "fixed-token-for-seeding-0123456789ab", invitation.Token)
	assert.True(t, invitation.ExpiresAt.Equal(expires))
}

func TestInvitationTokensAreUnique(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "alice")
	team := createTeam(t, db, owner, "acme")

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		invitation := TeamInvitation{
			TeamID:    team.ID,
			Email:     createUser(t, db, "invitee").Email,
			Role:      RoleMember,
			InvitedBy: owner.ID,
		}
		require.NoError(t, db.Create(&invitation).Error)
		assert.False(t, seen[invitation.Token], "token %q issued twice", invitation.Token)
		seen[invitation.Token] = true
	}
}

func TestInvitationExpiry(t *testing.T) {
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	freezeTime(t, created)

	db := newTestDB(t)
	owner := createUser(t, db, "alice")
	team := createTeam(t, db, owner, "acme")

	invitation := TeamInvitation{TeamID: team.ID, Email: "carol@example.com", Role: RoleMember, InvitedBy: owner.ID}
	require.NoError(t, db.Create(&invitation).Error)

	assert.False(t, invitation.IsExpired())

	// One second past the expiry instant.
	freezeTime(t, created.Add(InvitationTTL).Add(time.Second))
	assert.True(t, invitation.IsExpired())
}

func TestAcceptAddsMemberAndConsumesInvitation(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "alice")
	carol := createUser(t, db, "carol")
	team := createTeam(t, db, owner, "acme")

	invitation := TeamInvitation{TeamID: team.ID, Email: carol.Email, Role: RoleAdmin, InvitedBy: owner.ID}
	require.NoError(t, db.Create(&invitation).Error)

	var membersBefore, invitesBefore int64
	db.Model(&TeamMember{}).Where("team_id = ?", team.ID).Count(&membersBefore)
	db.Model(&TeamInvitation{}).Where("team_id = ?", team.ID).Count(&invitesBefore)

	require.NoError(t, invitation.Accept(db, carol))

	var membersAfter, invitesAfter int64
	db.Model(&TeamMember{}).Where("team_id = ?", team.ID).Count(&membersAfter)
	db.Model(&TeamInvitation{}).Where("team_id = ?", team.ID).Count(&invitesAfter)
	assert.Equal(t, membersBefore+1, membersAfter)
	assert.Equal(t, invitesBefore-1, invitesAfter)

	// Membership carries the invitation's role.
	role, err := team.UserRole(db, carol)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)
}

func TestAcceptExpiredInvitation(t *testing.T) {
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	freezeTime(t, created)

	db := newTestDB(t)
	owner := createUser(t, db, "alice")
	carol := createUser(t, db, "carol")
	team := createTeam(t, db, owner, "acme")

	invitation := TeamInvitation{TeamID: team.ID, Email: carol.Email, Role: RoleMember, InvitedBy: owner.ID}
	require.NoError(t, db.Create(&invitation).Error)

	freezeTime(t, created.Add(InvitationTTL).Add(time.Hour))

	err := invitation.Accept(db, carol)
	assert.ErrorIs(t, err, ErrInvitationExpired)

	// Nothing changed: no membership, invitation row still present.
	hasUser, err := team.HasUser(db, carol)
	require.NoError(t, err)
	assert.False(t, hasUser)

	var count int64
	db.Model(&TeamInvitation{}).Where("id = ?", invitation.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestRejectDeletesInvitation(t *testing.T) {
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	freezeTime(t, created)

	db := newTestDB(t)
	owner := createUser(t, db, "alice")
	team := createTeam(t, db, owner, "acme")

	invitation := TeamInvitation{TeamID: team.ID, Email: "carol@example.com", Role: RoleMember, InvitedBy: owner.ID}
	require.NoError(t, db.Create(&invitation).Error)

	// Reject works even past expiry.
	freezeTime(t, created.Add(InvitationTTL).Add(time.Hour))
	require.NoError(t, invitation.Reject(db))

	var count int64
	db.Model(&TeamInvitation{}).Where("id = ?", invitation.ID).Count(&count)
	assert.Zero(t, count)
}
