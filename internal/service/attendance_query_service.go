package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-track-api/internal/models"
	appErrors "github.com/noah-isme/school-track-api/pkg/errors"
)

type attendanceStudentRepository interface {
	ListByInstitution(ctx context.Context, institutionID string) ([]models.Student, error)
	ListBySubjects(ctx context.Context, subjectIDs []string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type teacherScopeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type nameResolver interface {
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

type scopeCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AttendanceQueryService is the read side of attendance: it resolves actor
// scopes and answers filtered, sorted, paginated queries over the attendance
// entries embedded in student rows. It is stateless and never mutates the
// store.
//
// The scope is a hard security boundary applied before any user-supplied
// filter; total and hasMore always derive from the same predicate set as the
// returned page. Pagination is stable across sequential fetches as long as no
// write lands in between; the store only guarantees read-committed visibility.
type AttendanceQueryService struct {
	students attendanceStudentRepository
	teachers teacherScopeRepository
	classes  nameResolver
	subjects nameResolver
	cache    scopeCache
	cacheTTL time.Duration
	pageSize int
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewAttendanceQueryService constructs the query engine. pageSize is the
// default page length used when a request does not carry a valid one.
func NewAttendanceQueryService(
	students attendanceStudentRepository,
	teachers teacherScopeRepository,
	classes nameResolver,
	subjects nameResolver,
	cache scopeCache,
	cacheTTL time.Duration,
	pageSize int,
	metrics *MetricsService,
	logger *zap.Logger,
) *AttendanceQueryService {
	if pageSize <= 0 {
		pageSize = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceQueryService{
		students: students,
		teachers: teachers,
		classes:  classes,
		subjects: subjects,
		cache:    cache,
		cacheTTL: cacheTTL,
		pageSize: pageSize,
		metrics:  metrics,
		logger:   logger,
	}
}

// ResolveAdminScope maps an institution admin onto the institution-wide scope.
func (s *AttendanceQueryService) ResolveAdminScope(institutionID string) models.AttendanceScope {
	return models.InstitutionScope(institutionID)
}

// ResolveTeacherScope maps a teacher onto the set of subjects they teach. The
// set is the teacher's security scope: it applies even when the caller
// supplies no subject filter. Resolutions are cached; assignments change
// rarely and attendance views are read-heavy.
func (s *AttendanceQueryService) ResolveTeacherScope(ctx context.Context, teacherID string) (models.AttendanceScope, error) {
	cacheKey := "attendance:scope:teacher:" + teacherID
	if s.cache != nil {
		var subjectIDs []string
		if err := s.cache.Get(ctx, cacheKey, &subjectIDs); err == nil {
			if s.metrics != nil {
				s.metrics.RecordScopeCache(true)
			}
			return models.SubjectScope(subjectIDs), nil
		}
		if s.metrics != nil {
			s.metrics.RecordScopeCache(false)
		}
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AttendanceScope{}, appErrors.Clone(appErrors.ErrNotFound, "Teacher not found")
		}
		return models.AttendanceScope{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve teacher scope")
	}

	subjectIDs := teacher.Teaches.SubjectIDs()
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, subjectIDs, s.cacheTTL); err != nil {
			s.logger.Warn("teacher scope cache write failed", zap.String("teacher_id", teacherID), zap.Error(err))
		}
	}
	return models.SubjectScope(subjectIDs), nil
}

// ResolveStudentScope maps a student onto their own records.
func (s *AttendanceQueryService) ResolveStudentScope(studentID string) models.AttendanceScope {
	return models.StudentScope(studentID)
}

// Query returns one page of flattened attendance records visible under scope,
// refined by the optional filter, sorted by date descending (entry id breaks
// ties so sequential pages partition the row set deterministically).
func (s *AttendanceQueryService) Query(ctx context.Context, scope models.AttendanceScope, filter models.AttendanceFilter) (*models.AttendancePage, error) {
	started := time.Now()
	rows, err := s.collect(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveAttendanceQuery(string(scope.Kind), len(rows), time.Since(started))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = s.pageSize
	}

	total := len(rows)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	records, err := s.join(ctx, rows[start:end])
	if err != nil {
		return nil, err
	}

	return &models.AttendancePage{
		Records: records,
		HasMore: total > page*size,
	}, nil
}

// QueryAll returns every record visible under scope and filter, unpaginated.
// Used by exports; large institutions pay the full materialization cost here,
// which is why the endpoint sits behind its own feature gate.
func (s *AttendanceQueryService) QueryAll(ctx context.Context, scope models.AttendanceScope, filter models.AttendanceFilter) ([]models.FlattenedAttendanceRecord, error) {
	rows, err := s.collect(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, rows)
}

// attendanceRow pairs a student with one of their embedded entries. It is the
// pre-join unit of filtering and sorting.
type attendanceRow struct {
	student *models.Student
	entry   models.AttendanceEntry
}

// collect runs scope selection, flattening, filtering and sorting. The count
// step and the page slice both operate on its result, so both always see the
// same predicate set.
func (s *AttendanceQueryService) collect(ctx context.Context, scope models.AttendanceScope, filter models.AttendanceFilter) ([]attendanceRow, error) {
	students, err := s.selectStudents(ctx, scope)
	if err != nil {
		return nil, err
	}

	predicates := buildPredicates(filter)
	stream := newRowStream(students, scope)

	var rows []attendanceRow
	for {
		row, ok := stream.Next()
		if !ok {
			break
		}
		if matchAll(row, predicates) {
			rows = append(rows, row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].entry.Date.Equal(rows[j].entry.Date) {
			return rows[i].entry.Date.After(rows[j].entry.Date)
		}
		return rows[i].entry.ID < rows[j].entry.ID
	})

	return rows, nil
}

func (s *AttendanceQueryService) selectStudents(ctx context.Context, scope models.AttendanceScope) ([]models.Student, error) {
	switch scope.Kind {
	case models.ScopeKindInstitution:
		students, err := s.students.ListByInstitution(ctx, scope.InstitutionID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution students")
		}
		return students, nil
	case models.ScopeKindSubjects:
		students, err := s.students.ListBySubjects(ctx, scope.SubjectIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scoped students")
		}
		return students, nil
	case models.ScopeKindStudent:
		student, err := s.students.FindByID(ctx, scope.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		return []models.Student{*student}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unknown scope kind %q", scope.Kind))
	}
}

// rowStream walks scoped students and yields one row per embedded attendance
// entry. Keeping the flatten step behind an iterator means the store could
// move to a normalized attendance table without touching the rest of the
// pipeline.
type rowStream struct {
	students []models.Student
	scope    models.AttendanceScope
	si, ei   int
}

func newRowStream(students []models.Student, scope models.AttendanceScope) *rowStream {
	return &rowStream{students: students, scope: scope}
}

// Next returns the next in-scope row, or ok=false when exhausted.
func (s *rowStream) Next() (attendanceRow, bool) {
	for s.si < len(s.students) {
		student := &s.students[s.si]
		for s.ei < len(student.Attendance) {
			entry := student.Attendance[s.ei]
			s.ei++
			if !s.scope.AllowsSubject(entry.SubjectID) {
				continue
			}
			return attendanceRow{student: student, entry: entry}, true
		}
		s.si++
		s.ei = 0
	}
	return attendanceRow{}, false
}

type rowPredicate func(attendanceRow) bool

func buildPredicates(filter models.AttendanceFilter) []rowPredicate {
	var predicates []rowPredicate
	if filter.ClassID != "" {
		classID := filter.ClassID
		predicates = append(predicates, func(row attendanceRow) bool {
			return row.student.ClassID == classID
		})
	}
	if filter.SubjectID != "" {
		subjectID := filter.SubjectID
		predicates = append(predicates, func(row attendanceRow) bool {
			return row.entry.SubjectID == subjectID
		})
	}
	if filter.Date != nil {
		start := startOfDay(*filter.Date)
		end := start.Add(24 * time.Hour)
		predicates = append(predicates, func(row attendanceRow) bool {
			at := row.entry.Date.UTC()
			return !at.Before(start) && at.Before(end)
		})
	}
	return predicates
}

func matchAll(row attendanceRow, predicates []rowPredicate) bool {
	for _, predicate := range predicates {
		if !predicate(row) {
			return false
		}
	}
	return true
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// missingRefName is rendered when a joined class or subject row no longer
// exists. The row still ships: a dangling reference is a data-integrity
// problem to log, not a reason to hide attendance.
const missingRefName = "N/A"

// join resolves display names for the sliced rows. Lookups are batched per
// page, one round-trip per referenced table.
func (s *AttendanceQueryService) join(ctx context.Context, rows []attendanceRow) ([]models.FlattenedAttendanceRecord, error) {
	classNames, err := s.classes.NamesByIDs(ctx, collectIDs(rows, func(row attendanceRow) string { return row.student.ClassID }))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve class names")
	}
	subjectNames, err := s.subjects.NamesByIDs(ctx, collectIDs(rows, func(row attendanceRow) string { return row.entry.SubjectID }))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subject names")
	}

	records := make([]models.FlattenedAttendanceRecord, 0, len(rows))
	for _, row := range rows {
		className, ok := classNames[row.student.ClassID]
		if !ok {
			className = missingRefName
			s.logger.Warn("attendance row references missing class",
				zap.String("student_id", row.student.ID),
				zap.String("class_id", row.student.ClassID))
		}
		subjectName, ok := subjectNames[row.entry.SubjectID]
		if !ok {
			subjectName = missingRefName
			s.logger.Warn("attendance row references missing subject",
				zap.String("student_id", row.student.ID),
				zap.String("subject_id", row.entry.SubjectID))
		}
		records = append(records, models.FlattenedAttendanceRecord{
			ID:          row.entry.ID,
			StudentName: row.student.Name,
			RollNumber:  row.student.RollNumber,
			ClassName:   className,
			SubjectName: subjectName,
			Date:        row.entry.Date,
			Status:      row.entry.Status,
		})
	}
	return records, nil
}

func collectIDs(rows []attendanceRow, extract func(attendanceRow) string) []string {
	seen := make(map[string]struct{}, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		id := extract(row)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
