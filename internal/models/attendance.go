package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// AttendanceEntry is one day of attendance for one subject, embedded in the
// owning student row. The write path keeps at most one entry per
// (student, subject, calendar day).
type AttendanceEntry struct {
	ID        string           `json:"id"`
	SubjectID string           `json:"subject_id"`
	Date      time.Time        `json:"date"`
	Status    AttendanceStatus `json:"status"`
}

// AttendanceEntries is the embedded attendance collection stored as JSONB on
// the students table. There is no standalone attendance table; queries explode
// this array in the application layer.
type AttendanceEntries []AttendanceEntry

// Value implements driver.Valuer.
func (e AttendanceEntries) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal attendance entries: %w", err)
	}
	return raw, nil
}

// Scan implements sql.Scanner.
func (e *AttendanceEntries) Scan(src interface{}) error {
	if src == nil {
		*e = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported attendance entries source %T", src)
	}
	if len(raw) == 0 {
		*e = nil
		return nil
	}
	return json.Unmarshal(raw, e)
}

// ScopeKind discriminates attendance query scopes.
type ScopeKind string

const (
	ScopeKindInstitution ScopeKind = "institution"
	ScopeKindSubjects    ScopeKind = "subjects"
	ScopeKindStudent     ScopeKind = "student"
)

// AttendanceScope is the mandatory security predicate for attendance queries.
// It restricts which rows an actor may ever see and is applied before any
// user-supplied filter.
type AttendanceScope struct {
	Kind          ScopeKind
	InstitutionID string
	SubjectIDs    []string
	StudentID     string
}

// InstitutionScope covers every student of an institution (admin view).
func InstitutionScope(institutionID string) AttendanceScope {
	return AttendanceScope{Kind: ScopeKindInstitution, InstitutionID: institutionID}
}

// SubjectScope covers attendance entries whose subject is in the taught set
// (teacher view).
func SubjectScope(subjectIDs []string) AttendanceScope {
	return AttendanceScope{Kind: ScopeKindSubjects, SubjectIDs: subjectIDs}
}

// StudentScope covers a single student's own entries.
func StudentScope(studentID string) AttendanceScope {
	return AttendanceScope{Kind: ScopeKindStudent, StudentID: studentID}
}

// AllowsSubject reports whether an entry for the given subject is visible
// under the scope.
func (s AttendanceScope) AllowsSubject(subjectID string) bool {
	if s.Kind != ScopeKindSubjects {
		return true
	}
	for _, id := range s.SubjectIDs {
		if id == subjectID {
			return true
		}
	}
	return false
}

// AttendanceFilter is the optional, user-supplied refinement applied on top of
// the scope. All fields combine with logical AND.
type AttendanceFilter struct {
	ClassID   string
	SubjectID string
	Date      *time.Time
	Page      int
	PageSize  int
}

// FlattenedAttendanceRecord is one row per (student, attendance entry) after
// exploding the embedded collection, joined with display metadata. It is the
// unit the engine filters, sorts and paginates; it is never persisted.
type FlattenedAttendanceRecord struct {
	ID          string           `json:"_id"`
	StudentName string           `json:"studentName"`
	RollNumber  int              `json:"rollNumber"`
	ClassName   string           `json:"className"`
	SubjectName string           `json:"subjectName"`
	Date        time.Time        `json:"date"`
	Status      AttendanceStatus `json:"status"`
}

// AttendancePage is one page of flattened records plus the infinite-scroll
// continuation signal.
type AttendancePage struct {
	Records []FlattenedAttendanceRecord `json:"records"`
	HasMore bool                        `json:"hasMore"`
}
