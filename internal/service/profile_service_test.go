package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noel-arch/mentor-match-api/internal/models"
	"github.com/noel-arch/mentor-match-api/internal/repository"
	appErrors "github.com/noel-arch/mentor-match-api/pkg/errors"
)

type mockProfileRepo struct {
	byID      map[string]*models.ProfileDetail
	createErr error
	created   []*models.Profile
	lastPatch repository.ProfilePatch
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{byID: make(map[string]*models.ProfileDetail)}
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*models.ProfileDetail, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) FindByUserID(ctx context.Context, userID string) (*models.ProfileDetail, error) {
	for _, p := range m.byID {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) List(ctx context.Context, userID string) ([]models.ProfileDetail, error) {
	out := make([]models.ProfileDetail, 0, len(m.byID))
	for _, p := range m.byID {
		if userID == "" || p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProfileRepo) Create(ctx context.Context, p *models.Profile) error {
	if m.createErr != nil {
		return m.createErr
	}
	p.ID = "prof-1"
	m.created = append(m.created, p)
	return nil
}

func (m *mockProfileRepo) UpdateSparse(ctx context.Context, id string, patch repository.ProfilePatch) (*models.Profile, error) {
	detail, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	m.lastPatch = patch
	updated := detail.Profile
	if patch.Department != nil {
		updated.Department = patch.Department
	}
	if patch.Expertise != nil {
		updated.Expertise = *patch.Expertise
	}
	if patch.MaxStudents != nil {
		updated.MaxStudents = patch.MaxStudents
	}
	return &updated, nil
}

func newTestProfileService(repo *mockProfileRepo, inv *countingInvalidator) *ProfileService {
	if inv == nil {
		return NewProfileService(repo, nil, nil, zap.NewNop())
	}
	return NewProfileService(repo, inv, nil, zap.NewNop())
}

func TestProfileCreateByOwner(t *testing.T) {
	repo := newMockProfileRepo()
	inv := &countingInvalidator{}
	svc := newTestProfileService(repo, inv)

	major := "Computer Science"
	profile, err := svc.Create(context.Background(), CreateProfileRequest{
		UserID:    "stu1",
		Major:     &major,
		Expertise: models.StringList{"databases", "compilers"},
	}, studentClaims("stu1"))
	require.NoError(t, err)
	assert.Equal(t, "prof-1", profile.ID)
	assert.Equal(t, pq.StringArray{"databases", "compilers"}, profile.Expertise)
	assert.Equal(t, 1, inv.calls)
}

func TestProfileCreateForAnotherUser(t *testing.T) {
	svc := newTestProfileService(newMockProfileRepo(), nil)

	_, err := svc.Create(context.Background(), CreateProfileRequest{UserID: "stu2"}, studentClaims("stu1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestProfileCreateByAdminForAnyone(t *testing.T) {
	repo := newMockProfileRepo()
	svc := newTestProfileService(repo, nil)

	profile, err := svc.Create(context.Background(), CreateProfileRequest{UserID: "lec1"}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, "lec1", profile.UserID)
}

func TestProfileCreateDuplicate(t *testing.T) {
	repo := newMockProfileRepo()
	repo.createErr = repository.ErrProfileExists
	inv := &countingInvalidator{}
	svc := newTestProfileService(repo, inv)

	_, err := svc.Create(context.Background(), CreateProfileRequest{UserID: "stu1"}, studentClaims("stu1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 0, inv.calls)
}

func TestProfileCreateMissingUser(t *testing.T) {
	svc := newTestProfileService(newMockProfileRepo(), nil)

	_, err := svc.Create(context.Background(), CreateProfileRequest{}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProfilePatchByOwner(t *testing.T) {
	repo := newMockProfileRepo()
	repo.byID["prof-1"] = &models.ProfileDetail{Profile: models.Profile{ID: "prof-1", UserID: "lec1"}}
	inv := &countingInvalidator{}
	svc := newTestProfileService(repo, inv)

	dept := "Informatics"
	expertise := models.StringList{"distributed systems"}
	updated, err := svc.Patch(context.Background(), "prof-1", PatchProfileRequest{
		Department: &dept,
		Expertise:  &expertise,
	}, lecturerClaims("lec1"))
	require.NoError(t, err)
	assert.Equal(t, "Informatics", *updated.Department)
	assert.Equal(t, pq.StringArray{"distributed systems"}, updated.Expertise)
	// Untouched fields stay out of the patch entirely.
	assert.Nil(t, repo.lastPatch.Bio)
	assert.Nil(t, repo.lastPatch.ResearchAreas)
	assert.Equal(t, 1, inv.calls)
}

func TestProfilePatchByStranger(t *testing.T) {
	repo := newMockProfileRepo()
	repo.byID["prof-1"] = &models.ProfileDetail{Profile: models.Profile{ID: "prof-1", UserID: "lec1"}}
	svc := newTestProfileService(repo, nil)

	dept := "Informatics"
	_, err := svc.Patch(context.Background(), "prof-1", PatchProfileRequest{Department: &dept}, lecturerClaims("lec2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestProfilePatchNotFound(t *testing.T) {
	svc := newTestProfileService(newMockProfileRepo(), nil)

	_, err := svc.Patch(context.Background(), "missing", PatchProfileRequest{}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStringListAcceptsBothForms(t *testing.T) {
	var req CreateProfileRequest
	err := json.Unmarshal([]byte(`{"user_id":"u1","expertise":["ml","nlp"],"research_areas":"graphs, streaming , "}`), &req)
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"ml", "nlp"}, req.Expertise)
	assert.Equal(t, models.StringList{"graphs", "streaming"}, req.ResearchAreas)
}

func TestProfileGetNotFound(t *testing.T) {
	svc := newTestProfileService(newMockProfileRepo(), nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
