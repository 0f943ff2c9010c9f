package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-track-api/internal/models"
)

func newClassRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClassRepositoryList(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "institution_id", "created_at"}).
		AddRow("class-1", "10A", "inst-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, institution_id, created_at FROM classes WHERE institution_id = $1 ORDER BY name ASC")).
		WithArgs("inst-1").
		WillReturnRows(rows)

	classes, err := repo.List(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Len(t, classes, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryNamesByIDs(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow("class-1", "10A").
		AddRow("class-2", "10B")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM classes WHERE id = ANY($1)")).
		WillReturnRows(rows)

	names, err := repo.NamesByIDs(context.Background(), []string{"class-1", "class-2", "class-gone"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"class-1": "10A", "class-2": "10B"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryNamesByIDsEmpty(t *testing.T) {
	db, _, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	names, err := repo.NamesByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestClassRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("DELETE FROM classes").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO classes").
		WillReturnResult(sqlmock.NewResult(1, 1))

	class := &models.Class{Name: "10A", InstitutionID: "inst-1"}
	require.NoError(t, repo.Create(context.Background(), class))
	assert.NotEmpty(t, class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
