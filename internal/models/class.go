package models

import "time"

// Class represents a class (batch) within an institution. Names are unique
// per institution.
type Class struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
