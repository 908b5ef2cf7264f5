package models

import (
	"time"

	"gorm.io/gorm"
)

// Task is a team-scoped work item, optionally assigned to a user.
type Task struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TeamID      uint         `gorm:"not null;index;index:idx_tasks_team_status" json:"team_id"`
	UserID      *uint        `gorm:"index;index:idx_tasks_user_status" json:"user_id,omitempty"`
	Title       string       `gorm:"not null" json:"title"`
	Description *string      `json:"description,omitempty"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'pending';index;index:idx_tasks_team_status" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null;default:'medium';index" json:"priority"`
	DueDate     *time.Time   `gorm:"index" json:"due_date,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`

	// Relations
	Team     Team  `json:"-"`
	Assignee *User `gorm:"foreignKey:UserID" json:"assignee,omitempty"`
}

// ScopePending filters to tasks that have not been started.
func ScopePending(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", TaskStatusPending)
}

// ScopeInProgress filters to tasks currently being worked on.
func ScopeInProgress(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", TaskStatusInProgress)
}

// ScopeCompleted filters to completed tasks.
func ScopeCompleted(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", TaskStatusCompleted)
}

// ScopeHighPriority filters to high-priority tasks.
func ScopeHighPriority(db *gorm.DB) *gorm.DB {
	return db.Where("priority = ?", TaskPriorityHigh)
}

// ScopeOverdue filters to tasks past their due date and not yet
// completed. A task with no due date is never overdue.
func ScopeOverdue(db *gorm.DB) *gorm.DB {
	return db.Where("completed_at IS NULL").
		Where("due_date IS NOT NULL").
		Where("due_date < ?", timeNow())
}

// IsOverdue reports whether the task has a due date in the past and has
// not been completed.
func (t *Task) IsOverdue() bool {
	return t.DueDate != nil &&
		t.CompletedAt == nil &&
		t.DueDate.Before(timeNow())
}

// IsCompleted reports whether the task's status is completed.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// MarkAsCompleted sets the status to completed and stamps completed_at.
// Unconditional: calling it again just refreshes the timestamp.
func (t *Task) MarkAsCompleted(db *gorm.DB) error {
	now := timeNow()
	if err := db.Model(t).Updates(map[string]interface{}{
		"status":       TaskStatusCompleted,
		"completed_at": now,
	}).Error; err != nil {
		return err
	}
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	return nil
}

// MarkAsInProgress sets the status to in_progress. completed_at is left
// untouched on purpose; overdue and completion checks key off
// completed_at, not status.
func (t *Task) MarkAsInProgress(db *gorm.DB) error {
	if err := db.Model(t).Update("status", TaskStatusInProgress).Error; err != nil {
		return err
	}
	t.Status = TaskStatusInProgress
	return nil
}

// Cancel sets the status to cancelled, leaving completed_at and the due
// date as they were.
func (t *Task) Cancel(db *gorm.DB) error {
	if err := db.Model(t).Update("status", TaskStatusCancelled).Error; err != nil {
		return err
	}
	t.Status = TaskStatusCancelled
	return nil
}
