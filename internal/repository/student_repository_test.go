package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-track-api/internal/models"
)

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows(t *testing.T, students ...models.Student) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows([]string{"id", "name", "roll_number", "class_id", "institution_id", "attendance", "created_at", "updated_at"})
	for _, s := range students {
		raw, err := json.Marshal(s.Attendance)
		require.NoError(t, err)
		rows.AddRow(s.ID, s.Name, s.RollNumber, s.ClassID, s.InstitutionID, raw, time.Now(), time.Now())
	}
	return rows
}

func TestStudentRepositoryListByInstitution(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	attendance := models.AttendanceEntries{{
		ID: "e1", SubjectID: "subj-a", Date: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), Status: models.AttendanceStatusPresent,
	}}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, roll_number, class_id, institution_id, attendance, created_at, updated_at FROM students WHERE institution_id = $1 ORDER BY roll_number ASC")).
		WithArgs("inst-1").
		WillReturnRows(studentRows(t, models.Student{ID: "stu-1", Name: "Ana", RollNumber: 1, ClassID: "class-1", InstitutionID: "inst-1", Attendance: attendance}))

	students, err := repo.ListByInstitution(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Len(t, students[0].Attendance, 1)
	assert.Equal(t, "subj-a", students[0].Attendance[0].SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListBySubjects(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT 1 FROM jsonb_array_elements").
		WillReturnRows(studentRows(t, models.Student{ID: "stu-1", Name: "Ana", RollNumber: 1, ClassID: "class-1", InstitutionID: "inst-1"}))

	students, err := repo.ListBySubjects(context.Background(), []string{"subj-a", "subj-b"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListBySubjectsEmptySet(t *testing.T) {
	db, _, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	students, err := repo.ListBySubjects(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestStudentRepositoryReplaceAttendance(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	entries := models.AttendanceEntries{{
		ID: "e1", SubjectID: "subj-a", Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), Status: models.AttendanceStatusAbsent,
	}}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET attendance = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReplaceAttendance(context.Background(), "stu-1", entries))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryReplaceAttendanceMissingStudent(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET attendance = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ReplaceAttendance(context.Background(), "ghost", nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{Name: "Ana", RollNumber: 7, ClassID: "class-1", InstitutionID: "inst-1"}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.NotNil(t, student.Attendance)
	assert.NoError(t, mock.ExpectationsWereMet())
}
