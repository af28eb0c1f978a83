package models

import "time"

// Subject represents one taught subject.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter scopes subject listing queries.
type SubjectFilter struct {
	Search   string
	Page     int
	PageSize int
}
