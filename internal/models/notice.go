package models

import "time"

// Notice is an institution-wide announcement posted by an admin.
type Notice struct {
	ID            string    `db:"id" json:"id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	Title         string    `db:"title" json:"title"`
	Details       string    `db:"details" json:"details"`
	Date          time.Time `db:"date" json:"date"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
