package models

import "time"

// Assignment is homework published under an allocation.
type Assignment struct {
	ID           string    `db:"id" json:"id"`
	AllocationID string    `db:"allocation_id" json:"allocation_id"`
	Title        string    `db:"title" json:"title"`
	Description  *string   `db:"description" json:"description,omitempty"`
	DueDate      time.Time `db:"due_date" json:"due_date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentFilter scopes assignment listing queries.
type AssignmentFilter struct {
	AllocationID string
	Page         int
	PageSize     int
}
