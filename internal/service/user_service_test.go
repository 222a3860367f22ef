package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noel-arch/mentor-match-api/internal/models"
	appErrors "github.com/noel-arch/mentor-match-api/pkg/errors"
)

type mockUserRepo struct {
	users   map[string]*models.User
	byEmail map[string]*models.User
	updated []*models.User
	deleted []string
	logs    []*models.AuditLog
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User), byEmail: make(map[string]*models.User)}
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	out := []models.User{}
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.updated = append(m.updated, user)
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func newTestUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func TestUserServiceCreate(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "Admin@Example.com",
		FullName: "New Admin",
		Role:     models.RoleAdmin,
		Active:   true,
		Password: "secret1",
	}, "actor", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.logs[0].Action)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo()
	repo.byEmail["dup@example.com"] = &models.User{ID: "u1", Email: "dup@example.com"}
	svc := newTestUserService(repo)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "dup@example.com",
		FullName: "Dup",
		Role:     models.RoleStudent,
		Password: "secret1",
	}, "actor", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateRoleRequiresAdmin(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "u1@example.com", Role: models.RoleStudent, Active: true}
	svc := newTestUserService(repo)

	role := models.RoleLecturer
	_, err := svc.Update(context.Background(), "u1", UpdateUserRequest{Role: role}, "u1", models.RoleStudent, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(context.Background(), "u1", UpdateUserRequest{Role: role}, "admin", models.RoleAdmin, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleLecturer, updated.Role)
}

func TestUserServiceUpdateSelfName(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "u1@example.com", Role: models.RoleStudent, Active: true}
	svc := newTestUserService(repo)

	updated, err := svc.Update(context.Background(), "u1", UpdateUserRequest{FullName: "Renamed"}, "u1", models.RoleStudent, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FullName)
}

func TestUserServiceUpdateEmptyPatch(t *testing.T) {
	svc := newTestUserService(newMockUserRepo())

	_, err := svc.Update(context.Background(), "u1", UpdateUserRequest{}, "admin", models.RoleAdmin, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDelete(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "u1@example.com"}
	svc := newTestUserService(repo)

	err := svc.Delete(context.Background(), "u1", "admin", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, repo.deleted)

	err = svc.Delete(context.Background(), "u1", "admin", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserSerializationHidesPasswordHash(t *testing.T) {
	user := models.User{ID: "u1", Email: "u1@example.com", PasswordHash: "$2a$10$secret", FullName: "User One"}

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "secret"))
	assert.False(t, strings.Contains(strings.ToLower(string(raw)), "password"))
}
