package models

import "time"

// TeamMember is the membership record tying a user to a team with a
// role. The pair is unique; the team owner is represented by
// teams.owner_id and deliberately has no record here.
//
// No soft delete: a removed member must be re-addable without tripping
// the unique index.
type TeamMember struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TeamID uint     `gorm:"not null;uniqueIndex:idx_team_members_team_user" json:"team_id"`
	UserID uint     `gorm:"not null;uniqueIndex:idx_team_members_team_user" json:"user_id"`
	Role   TeamRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`

	// Relations
	Team Team `json:"-"`
	User User `json:"-"`
}

// IsOwner reports whether the membership carries the owner role.
func (m *TeamMember) IsOwner() bool {
	return m.Role == RoleOwner
}

// IsAdmin reports whether the membership carries admin rights
// (owner or admin).
func (m *TeamMember) IsAdmin() bool {
	return m.Role == RoleOwner || m.Role == RoleAdmin
}

// CanManageTeam reports whether the member may change team settings.
func (m *TeamMember) CanManageTeam() bool {
	return m.IsAdmin()
}

// HasPermission reports whether the member's role grants the permission.
func (m *TeamMember) HasPermission(permission string) bool {
	return m.Role.HasPermission(permission)
}
