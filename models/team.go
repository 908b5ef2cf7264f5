package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrMemberNotFound is returned when a membership operation targets a
// (team, user) pair with no membership record. The owner never has one,
// so role updates and removals aimed at the owner land here too.
var ErrMemberNotFound = errors.New("team member not found")

// Team represents a collaboration space owning members, invitations and
// tasks. Settings is an opaque key/value bag (e.g. allow_invitations,
// visibility).
type Team struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name         string            `gorm:"not null" json:"name"`
	Slug         string            `gorm:"uniqueIndex;not null" json:"slug"`
	Description  string            `json:"description"`
	OwnerID      uint              `gorm:"not null;index" json:"owner_id"`
	PersonalTeam bool              `gorm:"default:false" json:"personal_team"`
	Settings     datatypes.JSONMap `json:"settings"`

	// Relations
	Owner       User             `gorm:"foreignKey:OwnerID" json:"-"`
	Members     []TeamMember     `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Invitations []TeamInvitation `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"invitations,omitempty"`
	Tasks       []Task           `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
}

// HasUser reports whether the user is the owner or a member of the team.
func (t *Team) HasUser(db *gorm.DB, user *User) (bool, error) {
	if t.OwnerID == user.ID {
		return true, nil
	}

	var count int64
	err := db.Model(&TeamMember{}).
		Where("team_id = ? AND user_id = ?", t.ID, user.ID).
		Count(&count).Error
	return count > 0, err
}

// UserRole returns the user's role in the team. The owner's role is
// derived from owner_id, everyone else's comes from their membership
// record. Returns "" when the user is not in the team at all.
func (t *Team) UserRole(db *gorm.DB, user *User) (TeamRole, error) {
	if t.OwnerID == user.ID {
		return RoleOwner, nil
	}

	var member TeamMember
	err := db.Where("team_id = ? AND user_id = ?", t.ID, user.ID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

// AddMember inserts a membership record for the user. An empty role
// defaults to member. Adding the same user twice violates the
// (team_id, user_id) unique index and surfaces the storage conflict.
func (t *Team) AddMember(db *gorm.DB, user *User, role TeamRole) (*TeamMember, error) {
	if role == "" {
		role = RoleMember
	}

	member := TeamMember{
		TeamID: t.ID,
		UserID: user.ID,
		Role:   role,
	}
	if err := db.Create(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// RemoveMember deletes the user's membership record. The owner has no
// record, so this path can never remove the owner.
func (t *Team) RemoveMember(db *gorm.DB, user *User) error {
	res := db.Where("team_id = ? AND user_id = ?", t.ID, user.ID).Delete(&TeamMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// UpdateMemberRole changes the role on an existing membership record.
func (t *Team) UpdateMemberRole(db *gorm.DB, user *User, role TeamRole) error {
	res := db.Model(&TeamMember{}).
		Where("team_id = ? AND user_id = ?", t.ID, user.ID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// PendingTasks returns the team's tasks that have not been started.
func (t *Team) PendingTasks(db *gorm.DB) ([]Task, error) {
	return t.tasks(db, ScopePending)
}

// InProgressTasks returns the team's tasks currently being worked on.
func (t *Team) InProgressTasks(db *gorm.DB) ([]Task, error) {
	return t.tasks(db, ScopeInProgress)
}

// CompletedTasks returns the team's completed tasks.
func (t *Team) CompletedTasks(db *gorm.DB) ([]Task, error) {
	return t.tasks(db, ScopeCompleted)
}

// OverdueTasks returns the team's tasks past their due date and not yet
// completed.
func (t *Team) OverdueTasks(db *gorm.DB) ([]Task, error) {
	return t.tasks(db, ScopeOverdue)
}

func (t *Team) tasks(db *gorm.DB, scopes ...func(*gorm.DB) *gorm.DB) ([]Task, error) {
	var tasks []Task
	err := db.Scopes(scopes...).Where("team_id = ?", t.ID).Find(&tasks).Error
	return tasks, err
}

// Delete removes the team together with its tasks, membership records
// and invitations, mirroring the ON DELETE CASCADE constraints for
// storage engines that do not enforce them.
func (t *Team) Delete(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("team_id = ?", t.ID).Delete(&Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", t.ID).Delete(&TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", t.ID).Delete(&TeamInvitation{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(t).Error
	})
}
