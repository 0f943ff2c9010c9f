package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-track-api/internal/models"
	"github.com/noah-isme/school-track-api/internal/service"
	appErrors "github.com/noah-isme/school-track-api/pkg/errors"
	"github.com/noah-isme/school-track-api/pkg/response"
)

type attendanceQueryService interface {
	ResolveAdminScope(institutionID string) models.AttendanceScope
	ResolveTeacherScope(ctx context.Context, teacherID string) (models.AttendanceScope, error)
	ResolveStudentScope(studentID string) models.AttendanceScope
	Query(ctx context.Context, scope models.AttendanceScope, filter models.AttendanceFilter) (*models.AttendancePage, error)
}

type attendanceMarkService interface {
	Mark(ctx context.Context, req service.MarkAttendanceRequest) (*service.MarkAttendanceResult, error)
}

type attendanceExportService interface {
	Export(ctx context.Context, scope models.AttendanceScope, filter models.AttendanceFilter, format service.ExportFormat) ([]byte, string, error)
}

// AttendanceHandler exposes the role-scoped attendance views plus the marking
// write path.
type AttendanceHandler struct {
	queries attendanceQueryService
	marks   attendanceMarkService
	exports attendanceExportService
}

// NewAttendanceHandler constructs the handler. exports may be nil when the
// export feature is disabled.
func NewAttendanceHandler(queries attendanceQueryService, marks attendanceMarkService, exports attendanceExportService) *AttendanceHandler {
	return &AttendanceHandler{queries: queries, marks: marks, exports: exports}
}

// AdminView godoc
// @Summary Institution-wide attendance records
// @Tags Attendance
// @Produce json
// @Param institutionId path string true "Institution ID"
// @Param page query int false "Page (1-based)"
// @Param classId query string false "Class filter"
// @Param subjectId query string false "Subject filter"
// @Param date query string false "Calendar day filter (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/admin/{institutionId} [get]
func (h *AttendanceHandler) AdminView(c *gin.Context) {
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	scope := h.queries.ResolveAdminScope(c.Param("institutionId"))
	page, err := h.queries.Query(c.Request.Context(), scope, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page)
}

// TeacherView godoc
// @Summary Attendance records for the subjects a teacher teaches
// @Tags Attendance
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param page query int false "Page (1-based)"
// @Param classId query string false "Class filter"
// @Param subjectId query string false "Subject filter"
// @Param date query string false "Calendar day filter (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/teacher/{teacherId} [get]
func (h *AttendanceHandler) TeacherView(c *gin.Context) {
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	scope, err := h.queries.ResolveTeacherScope(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := h.queries.Query(c.Request.Context(), scope, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page)
}

// StudentView godoc
// @Summary A student's own attendance records
// @Tags Attendance
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/student/{studentId} [get]
func (h *AttendanceHandler) StudentView(c *gin.Context) {
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	scope := h.queries.ResolveStudentScope(c.Param("studentId"))
	page, err := h.queries.Query(c.Request.Context(), scope, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page)
}

// Mark godoc
// @Summary Mark a subject's attendance for a set of students
// @Tags Attendance
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid attendance payload"))
		return
	}
	result, err := h.marks.Mark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Download the filtered institution attendance as CSV or PDF
// @Tags Attendance
// @Produce octet-stream
// @Param institutionId path string true "Institution ID"
// @Param format query string false "csv or pdf (default csv)"
// @Router /attendance/admin/{institutionId}/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	scope := h.queries.ResolveAdminScope(c.Param("institutionId"))
	payload, contentType, err := h.exports.Export(c.Request.Context(), scope, filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("attendance-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

func (h *AttendanceHandler) filterFromQuery(c *gin.Context) (models.AttendanceFilter, error) {
	date, err := parseDateParam(c.Query("date"))
	if err != nil {
		return models.AttendanceFilter{}, err
	}
	return models.AttendanceFilter{
		ClassID:   c.Query("classId"),
		SubjectID: c.Query("subjectId"),
		Date:      date,
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "pageSize", 0),
	}, nil
}
