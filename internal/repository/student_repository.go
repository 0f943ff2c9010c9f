package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-track-api/internal/models"
)

// StudentRepository persists students, including the embedded attendance
// collection each student row owns.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, name, roll_number, class_id, institution_id, attendance, created_at, updated_at`

// List returns students filtered by institution, class and name search.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE institution_id = $1`, studentColumns)
	args := []interface{}{filter.InstitutionID}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		query += fmt.Sprintf(" AND class_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	query += " ORDER BY roll_number ASC"
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// ListByInstitution returns every student of the institution with their
// attendance payload, ordered by roll number for deterministic flattening.
func (r *StudentRepository) ListByInstitution(ctx context.Context, institutionID string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE institution_id = $1 ORDER BY roll_number ASC`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, institutionID); err != nil {
		return nil, fmt.Errorf("list students by institution: %w", err)
	}
	return students, nil
}

// ListBySubjects returns students holding at least one attendance entry for
// any of the given subjects. Entry-level scoping still happens in the query
// engine; this narrows the candidate set the same way the embedded collection
// is indexed.
func (r *StudentRepository) ListBySubjects(ctx context.Context, subjectIDs []string) ([]models.Student, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM students
WHERE EXISTS (
    SELECT 1 FROM jsonb_array_elements(attendance) AS entry
    WHERE entry->>'subject_id' = ANY($1)
)
ORDER BY roll_number ASC`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, pq.Array(subjectIDs)); err != nil {
		return nil, fmt.Errorf("list students by subjects: %w", err)
	}
	return students, nil
}

// FindByID returns a single student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// Create inserts a new student with an empty attendance collection.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	if student.Attendance == nil {
		student.Attendance = models.AttendanceEntries{}
	}
	const query = `INSERT INTO students (id, name, roll_number, class_id, institution_id, attendance, created_at, updated_at)
VALUES (:id, :name, :roll_number, :class_id, :institution_id, :attendance, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update rewrites student identity fields, leaving attendance untouched.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, roll_number = :roll_number, class_id = :class_id, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return requireAffected(result, "update student")
}

// ReplaceAttendance overwrites the student's embedded attendance collection.
// The write path owns entry uniqueness; this is a whole-array swap.
func (r *StudentRepository) ReplaceAttendance(ctx context.Context, studentID string, entries models.AttendanceEntries) error {
	const query = `UPDATE students SET attendance = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, entries, time.Now().UTC(), studentID)
	if err != nil {
		return fmt.Errorf("replace attendance: %w", err)
	}
	return requireAffected(result, "replace attendance")
}

// Delete removes a student and the attendance history embedded in the row.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return requireAffected(result, "delete student")
}
