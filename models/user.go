package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrNotTeamMember is returned when a user tries to act on a team they
// neither own nor belong to.
var ErrNotTeamMember = errors.New("user does not belong to this team")

// User represents an account in the system
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// CurrentTeamID tracks which team the user is working in. Nil until
	// the first switch (registration points it at the personal team).
	CurrentTeamID *uint `json:"current_team_id,omitempty"`

	// Relations
	OwnedTeams      []Team           `gorm:"foreignKey:OwnerID" json:"owned_teams,omitempty"`
	Memberships     []TeamMember     `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	AssignedTasks   []Task           `gorm:"foreignKey:UserID" json:"assigned_tasks,omitempty"`
	SentInvitations []TeamInvitation `gorm:"foreignKey:InvitedBy" json:"sent_invitations,omitempty"`
}

// Teams returns the teams the user joined through a membership record.
// Owned teams are not included; see AllTeams.
func (u *User) Teams(db *gorm.DB) ([]Team, error) {
	var teams []Team
	err := db.
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", u.ID).
		Find(&teams).Error
	return teams, err
}

// AllTeams returns joined teams followed by owned teams.
func (u *User) AllTeams(db *gorm.DB) ([]Team, error) {
	teams, err := u.Teams(db)
	if err != nil {
		return nil, err
	}

	var owned []Team
	if err := db.Where("owner_id = ?", u.ID).Find(&owned).Error; err != nil {
		return nil, err
	}

	return append(teams, owned...), nil
}

// OwnsTeam reports whether the user is the team's owner.
func (u *User) OwnsTeam(team *Team) bool {
	return team.OwnerID == u.ID
}

// BelongsToTeam reports whether the user owns the team or has a
// membership record in it.
func (u *User) BelongsToTeam(db *gorm.DB, team *Team) (bool, error) {
	if u.OwnsTeam(team) {
		return true, nil
	}

	var count int64
	err := db.Model(&TeamMember{}).
		Where("team_id = ? AND user_id = ?", team.ID, u.ID).
		Count(&count).Error
	return count > 0, err
}

// SwitchTeam sets the user's current team. Fails with ErrNotTeamMember
// unless the user owns or belongs to the team.
func (u *User) SwitchTeam(db *gorm.DB, team *Team) error {
	ok, err := u.BelongsToTeam(db, team)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotTeamMember
	}

	if err := db.Model(u).Update("current_team_id", team.ID).Error; err != nil {
		return err
	}
	u.CurrentTeamID = &team.ID
	return nil
}

// PersonalTeam returns the user's first owned team flagged as personal,
// or nil when none exists. Uniqueness of the personal team is a
// convention, not a constraint, so the oldest one wins.
func (u *User) PersonalTeam(db *gorm.DB) (*Team, error) {
	var team Team
	err := db.
		Where("owner_id = ? AND personal_team = ?", u.ID, true).
		Order("id").
		First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// TasksInTeam returns the tasks assigned to the user within one team.
func (u *User) TasksInTeam(db *gorm.DB, team *Team) ([]Task, error) {
	var tasks []Task
	err := db.Where("user_id = ? AND team_id = ?", u.ID, team.ID).Find(&tasks).Error
	return tasks, err
}

// Delete removes the user. Assigned tasks survive unassigned and the
// user's membership records go with them; owned teams and sent
// invitations are intentionally left alone.
func (u *User) Delete(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Task{}).
			Where("user_id = ?", u.ID).
			Update("user_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&TeamMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(u).Error
	})
}
