package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-track-api/internal/models"
)

// TeacherRepository persists teachers and their embedded teaching assignments.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = `id, name, email, institution_id, teaches, created_at, updated_at`

// List returns an institution's teachers ordered by name.
func (r *TeacherRepository) List(ctx context.Context, institutionID string) ([]models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE institution_id = $1 ORDER BY name ASC`, teacherColumns)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, institutionID); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID returns a single teacher including their assignments.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE id = $1`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &teacher, nil
}

// Create inserts a teacher.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	if teacher.Teaches == nil {
		teacher.Teaches = models.TeachingAssignments{}
	}
	const query = `INSERT INTO teachers (id, name, email, institution_id, teaches, created_at, updated_at)
VALUES (:id, :name, :email, :institution_id, :teaches, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// UpdateAssignments overwrites a teacher's teaching assignments.
func (r *TeacherRepository) UpdateAssignments(ctx context.Context, teacherID string, teaches models.TeachingAssignments) error {
	const query = `UPDATE teachers SET teaches = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, teaches, time.Now().UTC(), teacherID)
	if err != nil {
		return fmt.Errorf("update teacher assignments: %w", err)
	}
	return requireAffected(result, "update teacher assignments")
}

// Delete removes a teacher.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return requireAffected(result, "delete teacher")
}
