package models

import "time"

// AttendanceStatus is the closed set of per-student statuses.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	default:
		return false
	}
}

// AttendanceSession is one attendance-taking event for an allocation on a
// date. The (allocation, date) pair is unique; the session is created
// implicitly on the first mark.
type AttendanceSession struct {
	ID           string    `db:"id" json:"id"`
	AllocationID string    `db:"allocation_id" json:"allocation_id"`
	Date         time.Time `db:"session_date" json:"session_date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceRecord is one student's status within a session. The
// (session, student) pair is unique; re-marks overwrite in place.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	SessionID string           `db:"session_id" json:"session_id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Status    AttendanceStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecordDetail joins the record with student metadata for recaps.
type AttendanceRecordDetail struct {
	AttendanceRecord
	StudentName string `db:"student_name" json:"student_name"`
}

// AttendanceSessionDetail is the session plus its records.
type AttendanceSessionDetail struct {
	AttendanceSession
	Records []AttendanceRecordDetail `json:"records"`
}
