package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-track-api/internal/models"
	"github.com/noah-isme/school-track-api/internal/service"
	appErrors "github.com/noah-isme/school-track-api/pkg/errors"
)

type attendanceQueryServiceMock struct {
	lastScope  models.AttendanceScope
	lastFilter models.AttendanceFilter
	page       *models.AttendancePage
	teacherErr error
}

func (m *attendanceQueryServiceMock) ResolveAdminScope(institutionID string) models.AttendanceScope {
	return models.InstitutionScope(institutionID)
}

func (m *attendanceQueryServiceMock) ResolveTeacherScope(ctx context.Context, teacherID string) (models.AttendanceScope, error) {
	if m.teacherErr != nil {
		return models.AttendanceScope{}, m.teacherErr
	}
	return models.SubjectScope([]string{"subj-a"}), nil
}

func (m *attendanceQueryServiceMock) ResolveStudentScope(studentID string) models.AttendanceScope {
	return models.StudentScope(studentID)
}

func (m *attendanceQueryServiceMock) Query(ctx context.Context, scope models.AttendanceScope, filter models.AttendanceFilter) (*models.AttendancePage, error) {
	m.lastScope = scope
	m.lastFilter = filter
	if m.page != nil {
		return m.page, nil
	}
	return &models.AttendancePage{Records: []models.FlattenedAttendanceRecord{}}, nil
}

type attendanceMarkServiceMock struct {
	lastReq service.MarkAttendanceRequest
	result  *service.MarkAttendanceResult
}

func (m *attendanceMarkServiceMock) Mark(ctx context.Context, req service.MarkAttendanceRequest) (*service.MarkAttendanceResult, error) {
	m.lastReq = req
	if m.result != nil {
		return m.result, nil
	}
	return &service.MarkAttendanceResult{Marked: len(req.Items)}, nil
}

type attendanceExportServiceMock struct{}

func (m *attendanceExportServiceMock) Export(ctx context.Context, scope models.AttendanceScope, filter models.AttendanceFilter, format service.ExportFormat) ([]byte, string, error) {
	return []byte("csv-data"), "text/csv", nil
}

func newAttendanceTestContext(t *testing.T, method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestAttendanceHandlerAdminViewBuildsFilter(t *testing.T) {
	queries := &attendanceQueryServiceMock{}
	handler := NewAttendanceHandler(queries, &attendanceMarkServiceMock{}, nil)

	c, w := newAttendanceTestContext(t, http.MethodGet, "/attendance/admin/inst-1?classId=class-1&subjectId=subj-a&date=2026-03-10&page=2", "")
	c.Params = gin.Params{{Key: "institutionId", Value: "inst-1"}}

	handler.AdminView(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ScopeKindInstitution, queries.lastScope.Kind)
	assert.Equal(t, "inst-1", queries.lastScope.InstitutionID)
	assert.Equal(t, "class-1", queries.lastFilter.ClassID)
	assert.Equal(t, "subj-a", queries.lastFilter.SubjectID)
	assert.Equal(t, 2, queries.lastFilter.Page)
	require.NotNil(t, queries.lastFilter.Date)
}

func TestAttendanceHandlerAdminViewInvalidDate(t *testing.T) {
	handler := NewAttendanceHandler(&attendanceQueryServiceMock{}, &attendanceMarkServiceMock{}, nil)

	c, w := newAttendanceTestContext(t, http.MethodGet, "/attendance/admin/inst-1?date=10-03-2026", "")
	c.Params = gin.Params{{Key: "institutionId", Value: "inst-1"}}

	handler.AdminView(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerTeacherViewNotFound(t *testing.T) {
	queries := &attendanceQueryServiceMock{
		teacherErr: appErrors.Clone(appErrors.ErrNotFound, "Teacher not found"),
	}
	handler := NewAttendanceHandler(queries, &attendanceMarkServiceMock{}, nil)

	c, w := newAttendanceTestContext(t, http.MethodGet, "/attendance/teacher/missing", "")
	c.Params = gin.Params{{Key: "teacherId", Value: "missing"}}

	handler.TeacherView(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Teacher not found")
}

func TestAttendanceHandlerStudentViewScopesToStudent(t *testing.T) {
	queries := &attendanceQueryServiceMock{}
	handler := NewAttendanceHandler(queries, &attendanceMarkServiceMock{}, nil)

	c, w := newAttendanceTestContext(t, http.MethodGet, "/attendance/student/stu-1", "")
	c.Params = gin.Params{{Key: "studentId", Value: "stu-1"}}

	handler.StudentView(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ScopeKindStudent, queries.lastScope.Kind)
	assert.Equal(t, "stu-1", queries.lastScope.StudentID)
}

func TestAttendanceHandlerMark(t *testing.T) {
	marks := &attendanceMarkServiceMock{}
	handler := NewAttendanceHandler(&attendanceQueryServiceMock{}, marks, nil)

	body := `{"subjectId":"subj-a","date":"2026-03-10","attendanceData":[{"studentId":"stu-1","status":"Present"}]}`
	c, w := newAttendanceTestContext(t, http.MethodPost, "/attendance/mark", body)

	handler.Mark(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "subj-a", marks.lastReq.SubjectID)
	require.Len(t, marks.lastReq.Items, 1)
	assert.Equal(t, "stu-1", marks.lastReq.Items[0].StudentID)
}

func TestAttendanceHandlerExport(t *testing.T) {
	handler := NewAttendanceHandler(&attendanceQueryServiceMock{}, &attendanceMarkServiceMock{}, &attendanceExportServiceMock{})

	c, w := newAttendanceTestContext(t, http.MethodGet, "/attendance/admin/inst-1/export?format=csv", "")
	c.Params = gin.Params{{Key: "institutionId", Value: "inst-1"}}

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "csv-data", w.Body.String())
}
