package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-track-api/internal/models"
)

// NoticeRepository persists institution notices.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository constructs the repository.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// List returns notices for an institution, newest first.
func (r *NoticeRepository) List(ctx context.Context, institutionID string) ([]models.Notice, error) {
	const query = `SELECT id, institution_id, title, details, date, created_at
FROM notices WHERE institution_id = $1 ORDER BY date DESC, created_at DESC`
	var notices []models.Notice
	if err := r.db.SelectContext(ctx, &notices, query, institutionID); err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return notices, nil
}

// Create inserts a notice.
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}
	if notice.CreatedAt.IsZero() {
		notice.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notices (id, institution_id, title, details, date, created_at)
VALUES (:id, :institution_id, :title, :details, :date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notice); err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

// Delete removes a notice scoped to its institution.
func (r *NoticeRepository) Delete(ctx context.Context, institutionID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1 AND institution_id = $2`, id, institutionID)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	return requireAffected(result, "delete notice")
}
