package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-track-api/internal/models"
)

// ComplaintRepository persists student complaints.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository constructs the repository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// List returns complaints for an institution, newest first.
func (r *ComplaintRepository) List(ctx context.Context, institutionID string) ([]models.Complaint, error) {
	const query = `SELECT id, institution_id, student_id, details, date, created_at
FROM complaints WHERE institution_id = $1 ORDER BY date DESC, created_at DESC`
	var complaints []models.Complaint
	if err := r.db.SelectContext(ctx, &complaints, query, institutionID); err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return complaints, nil
}

// Create inserts a complaint.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	if complaint.ID == "" {
		complaint.ID = uuid.NewString()
	}
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO complaints (id, institution_id, student_id, details, date, created_at)
VALUES (:id, :institution_id, :student_id, :details, :date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, complaint); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}
