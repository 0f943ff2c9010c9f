package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-track-api/internal/models"
	appErrors "github.com/noah-isme/school-track-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, institutionID string) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	UpdateAssignments(ctx context.Context, teacherID string, teaches models.TeachingAssignments) error
	Delete(ctx context.Context, id string) error
}

type scopeCacheInvalidator interface {
	Delete(ctx context.Context, key string)
}

// TeacherService manages the teaching roster and assignments.
type TeacherService struct {
	teachers  teacherRepository
	users     authUserRepository
	cache     scopeCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the service.
func NewTeacherService(teachers teacherRepository, users authUserRepository, cache scopeCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{teachers: teachers, users: users, cache: cache, validator: validate, logger: logger}
}

// RegisterTeacherRequest creates a teacher plus their login account.
type RegisterTeacherRequest struct {
	Name          string                     `json:"name" validate:"required"`
	Email         string                     `json:"email" validate:"required,email"`
	Password      string                     `json:"password" validate:"required,min=6"`
	Teaches       models.TeachingAssignments `json:"teaches"`
	InstitutionID string                     `json:"-"`
}

// AssignSubjectsRequest replaces a teacher's teaching assignments.
type AssignSubjectsRequest struct {
	Teaches models.TeachingAssignments `json:"teaches" validate:"required,min=1"`
}

// List returns an institution's teachers.
func (s *TeacherService) List(ctx context.Context, institutionID string) ([]models.Teacher, error) {
	teachers, err := s.teachers.List(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// Get returns a single teacher.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Register creates the teacher row and their login principal.
func (s *TeacherService) Register(ctx context.Context, req RegisterTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher := &models.Teacher{
		Name:          req.Name,
		Email:         req.Email,
		InstitutionID: req.InstitutionID,
		Teaches:       req.Teaches,
	}
	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		Email:         req.Email,
		PasswordHash:  hash,
		Role:          models.RoleTeacher,
		InstitutionID: req.InstitutionID,
		ActorID:       teacher.ID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher account")
	}

	s.logger.Info("teacher registered", zap.String("teacher_id", teacher.ID))
	return teacher, nil
}

// AssignSubjects replaces a teacher's assignments and invalidates their
// cached attendance scope so the new subject set takes effect immediately.
func (s *TeacherService) AssignSubjects(ctx context.Context, teacherID string, req AssignSubjectsRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := s.teachers.UpdateAssignments(ctx, teacherID, req.Teaches); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignments")
	}
	if s.cache != nil {
		s.cache.Delete(ctx, "attendance:scope:teacher:"+teacherID)
	}
	return s.Get(ctx, teacherID)
}

// Delete removes a teacher and their cached scope.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if err := s.teachers.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	if s.cache != nil {
		s.cache.Delete(ctx, "attendance:scope:teacher:"+id)
	}
	return nil
}
