package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-track-api/internal/models"
	appErrors "github.com/noah-isme/school-track-api/pkg/errors"
)

type noticeRepository interface {
	List(ctx context.Context, institutionID string) ([]models.Notice, error)
	Create(ctx context.Context, notice *models.Notice) error
	Delete(ctx context.Context, institutionID, id string) error
}

// NoticeService manages institution notices.
type NoticeService struct {
	notices   noticeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoticeService constructs the service.
func NewNoticeService(notices noticeRepository, validate *validator.Validate, logger *zap.Logger) *NoticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoticeService{notices: notices, validator: validate, logger: logger}
}

// CreateNoticeRequest posts a notice.
type CreateNoticeRequest struct {
	Title         string `json:"title" validate:"required"`
	Details       string `json:"details" validate:"required"`
	Date          string `json:"date" validate:"required"`
	InstitutionID string `json:"-"`
}

// List returns an institution's notices.
func (s *NoticeService) List(ctx context.Context, institutionID string) ([]models.Notice, error) {
	notices, err := s.notices.List(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	return notices, nil
}

// Create posts a notice.
func (s *NoticeService) Create(ctx context.Context, req CreateNoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	notice := &models.Notice{
		InstitutionID: req.InstitutionID,
		Title:         req.Title,
		Details:       req.Details,
		Date:          date,
	}
	if err := s.notices.Create(ctx, notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}
	return notice, nil
}

// Delete removes a notice within the institution.
func (s *NoticeService) Delete(ctx context.Context, institutionID, id string) error {
	if err := s.notices.Delete(ctx, institutionID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Notice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice")
	}
	return nil
}
