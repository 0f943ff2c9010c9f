package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TeachingAssignment is one (class, subject) pair a teacher covers. The set of
// subject ids across a teacher's assignments defines their attendance scope.
type TeachingAssignment struct {
	ClassID   string `json:"class_id"`
	SubjectID string `json:"subject_id"`
}

// TeachingAssignments is the embedded assignment list stored as JSONB on the
// teachers table.
type TeachingAssignments []TeachingAssignment

// Value implements driver.Valuer.
func (a TeachingAssignments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal teaching assignments: %w", err)
	}
	return raw, nil
}

// Scan implements sql.Scanner.
func (a *TeachingAssignments) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported teaching assignments source %T", src)
	}
	if len(raw) == 0 {
		*a = nil
		return nil
	}
	return json.Unmarshal(raw, a)
}

// SubjectIDs returns the deduplicated set of subject ids taught.
func (a TeachingAssignments) SubjectIDs() []string {
	seen := make(map[string]struct{}, len(a))
	ids := make([]string, 0, len(a))
	for _, assignment := range a {
		if assignment.SubjectID == "" {
			continue
		}
		if _, ok := seen[assignment.SubjectID]; ok {
			continue
		}
		seen[assignment.SubjectID] = struct{}{}
		ids = append(ids, assignment.SubjectID)
	}
	return ids
}

// Teacher represents a teaching staff member.
type Teacher struct {
	ID            string              `db:"id" json:"id"`
	Name          string              `db:"name" json:"name"`
	Email         string              `db:"email" json:"email"`
	InstitutionID string              `db:"institution_id" json:"institution_id"`
	Teaches       TeachingAssignments `db:"teaches" json:"teaches"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}
