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

type mockUserRepo struct {
	users map[string]models.User
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	m.users[user.ID] = *user
	return nil
}

func newAuthService(repo *mockUserRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		Secret:     "test_secret",
		Expiration: time.Hour,
		Issuer:     "school-track-api",
	})
}

func seedUser(t *testing.T, repo *mockUserRepo, email, password string, role models.UserRole) models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	user := models.User{
		ID:            "user-1",
		Email:         email,
		PasswordHash:  hash,
		Role:          role,
		InstitutionID: "inst-1",
		ActorID:       "actor-1",
	}
	require.NoError(t, repo.Create(context.Background(), &user))
	return user
}

func TestLoginIssuesValidToken(t *testing.T) {
	repo := &mockUserRepo{}
	seedUser(t, repo, "admin@school.test", "secret123", models.RoleAdmin)
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.test",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "inst-1", claims.InstitutionID)
	assert.Equal(t, "actor-1", claims.ActorID)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockUserRepo{}
	seedUser(t, repo, "admin@school.test", "secret123", models.RoleAdmin)
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.test",
		Password: "wrong",
	})
	require.Error(t, err)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(&mockUserRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@school.test",
		Password: "whatever1",
	})
	require.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	repo := &mockUserRepo{}
	seedUser(t, repo, "admin@school.test", "secret123", models.RoleAdmin)
	issuer := newAuthService(repo)

	resp, err := issuer.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.test",
		Password: "secret123",
	})
	require.NoError(t, err)

	other := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{Secret: "different", Expiration: time.Hour})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockUserRepo{})

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
}
