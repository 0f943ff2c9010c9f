package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-track-api/internal/models"
)

func newExportFixture() *AttendanceExportService {
	students := &mockAttendanceStudents{byInstitution: map[string][]models.Student{
		"inst-1": {{
			ID: "stu-1", Name: "Ana", RollNumber: 3, ClassID: "class-1",
			Attendance: models.AttendanceEntries{
				entry("e1", "subj-a", day(10, 9, 0)),
				entry("e2", "subj-a", day(11, 9, 0)),
			},
		}},
	}}
	engine := newQueryService(students, &mockTeacherScopeRepo{}, nil, nil, nil)
	return NewAttendanceExportService(engine)
}

func TestExportCSV(t *testing.T) {
	svc := newExportFixture()

	payload, contentType, err := svc.Export(context.Background(), models.InstitutionScope("inst-1"), models.AttendanceFilter{}, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	body := string(payload)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Student,Roll Number,Class,Subject,Status", lines[0])
	assert.Contains(t, body, "Ana")
	assert.Contains(t, body, "Algebra")
}

func TestExportPDF(t *testing.T) {
	svc := newExportFixture()

	payload, contentType, err := svc.Export(context.Background(), models.InstitutionScope("inst-1"), models.AttendanceFilter{}, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := newExportFixture()

	_, _, err := svc.Export(context.Background(), models.InstitutionScope("inst-1"), models.AttendanceFilter{}, "xlsx")
	require.Error(t, err)
}
