package models

import "time"

// Class represents one homeroom group of students.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Grade     string    `db:"grade" json:"grade"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassFilter scopes class listing queries.
type ClassFilter struct {
	Grade    string
	Search   string
	Page     int
	PageSize int
}
