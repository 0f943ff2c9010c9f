package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-track-api/internal/models"
	appErrors "github.com/noah-isme/school-track-api/pkg/errors"
)

type markStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ReplaceAttendance(ctx context.Context, studentID string, entries models.AttendanceEntries) error
}

// AttendanceMarkService is the attendance write path. For every marked
// student it drops any existing entry for the same (subject, calendar day)
// before appending the new one, keeping the at-most-one-entry invariant the
// query engine relies on.
type AttendanceMarkService struct {
	students  markStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceMarkService constructs the write path.
func NewAttendanceMarkService(students markStudentRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceMarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceMarkService{students: students, validator: validate, logger: logger}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	return svc
}

// MarkAttendanceItem is one student's status within a marking request.
type MarkAttendanceItem struct {
	StudentID string `json:"studentId" validate:"required"`
	Status    string `json:"status" validate:"required,attendance_status"`
}

// MarkAttendanceRequest marks a subject's attendance for a set of students on
// one day.
type MarkAttendanceRequest struct {
	SubjectID string               `json:"subjectId" validate:"required"`
	Date      string               `json:"date" validate:"required"`
	Items     []MarkAttendanceItem `json:"attendanceData" validate:"required,min=1,dive"`
}

// MarkAttendanceResult summarises the write.
type MarkAttendanceResult struct {
	Marked  int      `json:"marked"`
	Skipped []string `json:"skipped,omitempty"`
}

// Mark applies the request student by student. Unknown student ids are
// skipped and reported rather than failing the batch, matching how marking is
// used from a class roster that may be momentarily stale.
func (s *AttendanceMarkService) Mark(ctx context.Context, req MarkAttendanceRequest) (*MarkAttendanceResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}

	result := &MarkAttendanceResult{}
	for _, item := range req.Items {
		student, err := s.students.FindByID(ctx, item.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				result.Skipped = append(result.Skipped, item.StudentID)
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}

		entries := dropSameDay(student.Attendance, req.SubjectID, date)
		entries = append(entries, models.AttendanceEntry{
			ID:        uuid.NewString(),
			SubjectID: req.SubjectID,
			Date:      date,
			Status:    models.AttendanceStatus(item.Status),
		})
		if err := s.students.ReplaceAttendance(ctx, student.ID, entries); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance")
		}
		result.Marked++
	}

	s.logger.Info("attendance marked",
		zap.String("subject_id", req.SubjectID),
		zap.String("date", date.Format("2006-01-02")),
		zap.Int("marked", result.Marked),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

// dropSameDay removes entries matching (subject, calendar day), the
// delete-then-insert half of the keep-one write semantics.
func dropSameDay(entries models.AttendanceEntries, subjectID string, day time.Time) models.AttendanceEntries {
	start := startOfDay(day)
	end := start.Add(24 * time.Hour)
	kept := make(models.AttendanceEntries, 0, len(entries))
	for _, entry := range entries {
		at := entry.Date.UTC()
		if entry.SubjectID == subjectID && !at.Before(start) && at.Before(end) {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}
