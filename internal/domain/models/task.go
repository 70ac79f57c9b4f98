// internal/domain/models/task.go
package models

import "time"

// Status is one of the three fixed board columns. Any status can move to any
// other; the only rule is that the target is one of these values.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists the columns in board order.
var Statuses = []Status{StatusToDo, StatusInProgress, StatusDone}

// Valid reports whether s is a known column.
func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority is the fixed three-value task priority.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities lists priorities from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task is a card on the board. It lives in exactly one task collection,
// chosen by (owner, view mode, group id).
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// DescriptionHTML is the description rendered for display; derived,
	// never stored.
	DescriptionHTML string    `json:"description_html,omitempty"`
	Status          Status    `json:"status"`
	Priority        Priority  `json:"priority"`
	Assignee        string    `json:"assignee,omitempty"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// Comment belongs to one task's comment sub-collection.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
