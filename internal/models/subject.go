package models

import "time"

// Subject represents a taught subject within an institution.
type Subject struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Code          string    `db:"code" json:"code"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
