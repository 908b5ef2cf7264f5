package models

// TaskPriority ranks how urgent a task is.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// IsValid reports whether p is one of the known priorities.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Label returns the human-readable name of the priority.
func (p TaskPriority) Label() string {
	switch p {
	case TaskPriorityLow:
		return "Low"
	case TaskPriorityMedium:
		return "Medium"
	case TaskPriorityHigh:
		return "High"
	}
	return string(p)
}

// Color returns the presentation color for the priority.
func (p TaskPriority) Color() string {
	switch p {
	case TaskPriorityLow:
		return "gray"
	case TaskPriorityMedium:
		return "yellow"
	case TaskPriorityHigh:
		return "red"
	}
	return ""
}

// Icon returns the presentation icon name for the priority.
func (p TaskPriority) Icon() string {
	switch p {
	case TaskPriorityLow:
		return "arrow-down"
	case TaskPriorityMedium:
		return "minus"
	case TaskPriorityHigh:
		return "arrow-up"
	}
	return ""
}
