package tasks

import "time"

// Task is a simple to-do item.
type Task struct {
	ID          int64      `json:"task_id"`
	Description string     `json:"task_description"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	IsCompleted bool       `json:"is_completed"`
}
