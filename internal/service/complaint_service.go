package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-track-api/internal/models"
	appErrors "github.com/noah-isme/school-track-api/pkg/errors"
)

type complaintRepository interface {
	List(ctx context.Context, institutionID string) ([]models.Complaint, error)
	Create(ctx context.Context, complaint *models.Complaint) error
}

// ComplaintService manages student complaints.
type ComplaintService struct {
	complaints complaintRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewComplaintService constructs the service.
func NewComplaintService(complaints complaintRepository, validate *validator.Validate, logger *zap.Logger) *ComplaintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{complaints: complaints, validator: validate, logger: logger}
}

// FileComplaintRequest files a complaint on behalf of a student.
type FileComplaintRequest struct {
	Details       string `json:"details" validate:"required"`
	StudentID     string `json:"-"`
	InstitutionID string `json:"-"`
}

// List returns an institution's complaints.
func (s *ComplaintService) List(ctx context.Context, institutionID string) ([]models.Complaint, error) {
	complaints, err := s.complaints.List(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}
	return complaints, nil
}

// File records a new complaint dated now.
func (s *ComplaintService) File(ctx context.Context, req FileComplaintRequest) (*models.Complaint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint payload")
	}
	complaint := &models.Complaint{
		InstitutionID: req.InstitutionID,
		StudentID:     req.StudentID,
		Details:       req.Details,
		Date:          time.Now().UTC(),
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to file complaint")
	}
	return complaint, nil
}
