package models

import "time"

// Allocation binds one teacher to one class and one subject. The
// (teacher, class, subject) triple is unique; assignments and attendance
// sessions hang off it.
type Allocation struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AllocationDetail enriches an allocation with descriptive names.
type AllocationDetail struct {
	Allocation
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	ClassName   string `db:"class_name" json:"class_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// AllocationFilter scopes allocation listing queries.
type AllocationFilter struct {
	TeacherID string
	ClassID   string
	SubjectID string
	Page      int
	PageSize  int
}
