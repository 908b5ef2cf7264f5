package models

// TeamRole is the role a user holds within a team.
//
// The owner role is special: it is derived from teams.owner_id and never
// stored in team_members (see Team.UserRole). Invitations therefore only
// ever carry admin, member or viewer.
type TeamRole string

const (
	RoleOwner  TeamRole = "owner"
	RoleAdmin  TeamRole = "admin"
	RoleMember TeamRole = "member"
	RoleViewer TeamRole = "viewer"
)

// Permissions grantable through team roles.
const (
	PermissionAll           = "*"
	PermissionManageTeam    = "manage-team"
	PermissionManageMembers = "manage-members"
	PermissionViewTeam      = "view-team"
	PermissionContribute    = "contribute"
)

// IsValid reports whether r is one of the known roles.
func (r TeamRole) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Label returns the human-readable name of the role.
func (r TeamRole) Label() string {
	switch r {
	case RoleOwner:
		return "Owner"
	case RoleAdmin:
		return "Administrator"
	case RoleMember:
		return "Member"
	case RoleViewer:
		return "Viewer"
	}
	return string(r)
}

// Permissions returns the fixed permission set of the role. Owners get
// the wildcard.
func (r TeamRole) Permissions() []string {
	switch r {
	case RoleOwner:
		return []string{PermissionAll}
	case RoleAdmin:
		return []string{PermissionManageTeam, PermissionManageMembers, PermissionViewTeam}
	case RoleMember:
		return []string{PermissionViewTeam, PermissionContribute}
	case RoleViewer:
		return []string{PermissionViewTeam}
	}
	return nil
}

// HasPermission reports whether the role grants the given permission,
// either directly or through the wildcard.
func (r TeamRole) HasPermission(permission string) bool {
	for _, p := range r.Permissions() {
		if p == permission || p == PermissionAll {
			return true
		}
	}
	return false
}
