package models

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// Label returns the human-readable name of the status.
func (s TaskStatus) Label() string {
	switch s {
	case TaskStatusPending:
		return "Pending"
	case TaskStatusInProgress:
		return "In Progress"
	case TaskStatusCompleted:
		return "Completed"
	case TaskStatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// Color returns the presentation color for the status.
func (s TaskStatus) Color() string {
	switch s {
	case TaskStatusPending:
		return "gray"
	case TaskStatusInProgress:
		return "blue"
	case TaskStatusCompleted:
		return "green"
	case TaskStatusCancelled:
		return "red"
	}
	return ""
}
