package models

import "time"

// Complaint is filed by a student and reviewed by institution staff.
type Complaint struct {
	ID            string    `db:"id" json:"id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	Details       string    `db:"details" json:"details"`
	Date          time.Time `db:"date" json:"date"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
