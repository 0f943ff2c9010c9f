package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-track-api/internal/models"
)

type mockMarkStudents struct {
	students map[string]models.Student
	replaced map[string]models.AttendanceEntries
}

func (m *mockMarkStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMarkStudents) ReplaceAttendance(ctx context.Context, studentID string, entries models.AttendanceEntries) error {
	if m.replaced == nil {
		m.replaced = make(map[string]models.AttendanceEntries)
	}
	m.replaced[studentID] = entries
	if s, ok := m.students[studentID]; ok {
		s.Attendance = entries
		m.students[studentID] = s
	}
	return nil
}

func TestMarkAppendsEntry(t *testing.T) {
	repo := &mockMarkStudents{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Name: "Ana"},
	}}
	svc := NewAttendanceMarkService(repo, validator.New(), zap.NewNop())

	result, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		SubjectID: "subj-a",
		Date:      "2026-03-10",
		Items:     []MarkAttendanceItem{{StudentID: "stu-1", Status: "Present"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)
	assert.Empty(t, result.Skipped)

	entries := repo.replaced["stu-1"]
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, "subj-a", entries[0].SubjectID)
	assert.Equal(t, models.AttendanceStatusPresent, entries[0].Status)
}

func TestMarkReplacesSameDayEntry(t *testing.T) {
	existing := models.AttendanceEntry{
		ID:        "old",
		SubjectID: "subj-a",
		Date:      time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
		Status:    models.AttendanceStatusPresent,
	}
	other := models.AttendanceEntry{
		ID:        "keep",
		SubjectID: "subj-b",
		Date:      time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC),
		Status:    models.AttendanceStatusPresent,
	}
	repo := &mockMarkStudents{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Name: "Ana", Attendance: models.AttendanceEntries{existing, other}},
	}}
	svc := NewAttendanceMarkService(repo, validator.New(), zap.NewNop())

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		SubjectID: "subj-a",
		Date:      "2026-03-10",
		Items:     []MarkAttendanceItem{{StudentID: "stu-1", Status: "Absent"}},
	})
	require.NoError(t, err)

	entries := repo.replaced["stu-1"]
	require.Len(t, entries, 2)
	ids := []string{entries[0].ID, entries[1].ID}
	assert.Contains(t, ids, "keep")
	assert.NotContains(t, ids, "old")
	for _, e := range entries {
		if e.SubjectID == "subj-a" {
			assert.Equal(t, models.AttendanceStatusAbsent, e.Status)
		}
	}
}

func TestMarkKeepsOtherDaysForSameSubject(t *testing.T) {
	previousDay := models.AttendanceEntry{
		ID:        "prev",
		SubjectID: "subj-a",
		Date:      time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC),
		Status:    models.AttendanceStatusAbsent,
	}
	repo := &mockMarkStudents{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Name: "Ana", Attendance: models.AttendanceEntries{previousDay}},
	}}
	svc := NewAttendanceMarkService(repo, validator.New(), zap.NewNop())

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		SubjectID: "subj-a",
		Date:      "2026-03-10",
		Items:     []MarkAttendanceItem{{StudentID: "stu-1", Status: "Present"}},
	})
	require.NoError(t, err)
	require.Len(t, repo.replaced["stu-1"], 2)
}

func TestMarkSkipsUnknownStudents(t *testing.T) {
	repo := &mockMarkStudents{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Name: "Ana"},
	}}
	svc := NewAttendanceMarkService(repo, validator.New(), zap.NewNop())

	result, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		SubjectID: "subj-a",
		Date:      "2026-03-10",
		Items: []MarkAttendanceItem{
			{StudentID: "stu-1", Status: "Present"},
			{StudentID: "ghost", Status: "Absent"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, []string{"ghost"}, result.Skipped)
}

func TestMarkRejectsInvalidStatus(t *testing.T) {
	svc := NewAttendanceMarkService(&mockMarkStudents{}, validator.New(), zap.NewNop())

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		SubjectID: "subj-a",
		Date:      "2026-03-10",
		Items:     []MarkAttendanceItem{{StudentID: "stu-1", Status: "Late"}},
	})
	require.Error(t, err)
}

func TestMarkRejectsMalformedDate(t *testing.T) {
	svc := NewAttendanceMarkService(&mockMarkStudents{}, validator.New(), zap.NewNop())

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		SubjectID: "subj-a",
		Date:      "10/03/2026",
		Items:     []MarkAttendanceItem{{StudentID: "stu-1", Status: "Present"}},
	})
	require.Error(t, err)
}
