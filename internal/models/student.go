package models

import "time"

// Student represents an enrolled student. The attendance column embeds the
// student's full attendance history; it is mutated only by the marking write
// path and read by the query engine.
type Student struct {
	ID            string            `db:"id" json:"id"`
	Name          string            `db:"name" json:"name"`
	RollNumber    int               `db:"roll_number" json:"roll_number"`
	ClassID       string            `db:"class_id" json:"class_id"`
	InstitutionID string            `db:"institution_id" json:"institution_id"`
	Attendance    AttendanceEntries `db:"attendance" json:"attendance,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// StudentFilter scopes roster listings.
type StudentFilter struct {
	InstitutionID string
	ClassID       string
	Search        string
}
