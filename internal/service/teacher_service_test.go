package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-track-api/internal/models"
)

type mockTeacherRepo struct {
	teachers map[string]models.Teacher
}

func (m *mockTeacherRepo) List(ctx context.Context, institutionID string) ([]models.Teacher, error) {
	var list []models.Teacher
	for _, t := range m.teachers {
		if t.InstitutionID == institutionID {
			list = append(list, t)
		}
	}
	return list, nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if m.teachers == nil {
		m.teachers = make(map[string]models.Teacher)
	}
	if teacher.ID == "" {
		teacher.ID = "generated"
	}
	m.teachers[teacher.ID] = *teacher
	return nil
}

func (m *mockTeacherRepo) UpdateAssignments(ctx context.Context, teacherID string, teaches models.TeachingAssignments) error {
	t, ok := m.teachers[teacherID]
	if !ok {
		return sql.ErrNoRows
	}
	t.Teaches = teaches
	m.teachers[teacherID] = t
	return nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.teachers[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.teachers, id)
	return nil
}

type mockScopeInvalidator struct {
	deleted []string
}

func (m *mockScopeInvalidator) Delete(ctx context.Context, key string) {
	m.deleted = append(m.deleted, key)
}

func TestTeacherServiceRegisterCreatesAccount(t *testing.T) {
	teachers := &mockTeacherRepo{}
	users := &mockUserRepo{}
	svc := NewTeacherService(teachers, users, nil, validator.New(), zap.NewNop())

	teacher, err := svc.Register(context.Background(), RegisterTeacherRequest{
		Name:          "Mr. Chen",
		Email:         "chen@school.test",
		Password:      "secret123",
		InstitutionID: "inst-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, teacher.ID)
	require.Len(t, users.users, 1)
	for _, u := range users.users {
		assert.Equal(t, models.RoleTeacher, u.Role)
		assert.Equal(t, teacher.ID, u.ActorID)
	}
}

func TestTeacherServiceAssignSubjectsInvalidatesScope(t *testing.T) {
	teachers := &mockTeacherRepo{teachers: map[string]models.Teacher{
		"t1": {ID: "t1", Name: "Mr. Chen", InstitutionID: "inst-1"},
	}}
	invalidator := &mockScopeInvalidator{}
	svc := NewTeacherService(teachers, &mockUserRepo{}, invalidator, validator.New(), zap.NewNop())

	updated, err := svc.AssignSubjects(context.Background(), "t1", AssignSubjectsRequest{
		Teaches: models.TeachingAssignments{{ClassID: "class-1", SubjectID: "subj-a"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"subj-a"}, updated.Teaches.SubjectIDs())
	assert.Equal(t, []string{"attendance:scope:teacher:t1"}, invalidator.deleted)
}

func TestTeacherServiceAssignSubjectsUnknownTeacher(t *testing.T) {
	svc := NewTeacherService(&mockTeacherRepo{}, &mockUserRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.AssignSubjects(context.Background(), "ghost", AssignSubjectsRequest{
		Teaches: models.TeachingAssignments{{ClassID: "class-1", SubjectID: "subj-a"}},
	})
	require.Error(t, err)
}

func TestTeacherServiceDeleteInvalidatesScope(t *testing.T) {
	teachers := &mockTeacherRepo{teachers: map[string]models.Teacher{
		"t1": {ID: "t1", Name: "Mr. Chen", InstitutionID: "inst-1"},
	}}
	invalidator := &mockScopeInvalidator{}
	svc := NewTeacherService(teachers, &mockUserRepo{}, invalidator, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "t1"))
	assert.Equal(t, []string{"attendance:scope:teacher:t1"}, invalidator.deleted)
	assert.Empty(t, teachers.teachers)
}
