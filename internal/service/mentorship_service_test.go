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

	"github.com/noel-arch/mentor-match-api/internal/models"
	"github.com/noel-arch/mentor-match-api/internal/repository"
	appErrors "github.com/noel-arch/mentor-match-api/pkg/errors"
)

type mockMentorshipRepo struct {
	byID      map[string]*models.MentorshipDetail
	createErr error
	created   []*models.Mentorship
	listed    []models.MentorshipDetail
	listFili  *models.MentorshipFilter
	patched   map[string]models.MentorshipPatch
	deleted   []string
}

func newMockMentorshipRepo() *mockMentorshipRepo {
	return &mockMentorshipRepo{
		byID:    make(map[string]*models.MentorshipDetail),
		patched: make(map[string]models.MentorshipPatch),
	}
}

func (m *mockMentorshipRepo) Create(ctx context.Context, ms *models.Mentorship) error {
	if m.createErr != nil {
		return m.createErr
	}
	if ms.ID == "" {
		ms.ID = "m1"
	}
	m.created = append(m.created, ms)
	m.byID[ms.ID] = &models.MentorshipDetail{Mentorship: *ms}
	return nil
}

func (m *mockMentorshipRepo) FindByID(ctx context.Context, id string) (*models.MentorshipDetail, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

func (m *mockMentorshipRepo) List(ctx context.Context, filter models.MentorshipFilter) ([]models.MentorshipDetail, error) {
	m.listFili = &filter
	return m.listed, nil
}

func (m *mockMentorshipRepo) UpdateSparse(ctx context.Context, id string, patch models.MentorshipPatch) (*models.Mentorship, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	m.patched[id] = patch
	if patch.Status != nil {
		d.Status = *patch.Status
	}
	if patch.Notes != nil {
		d.Notes = *patch.Notes
	}
	if patch.Rating != nil {
		d.Rating = patch.Rating
	}
	if patch.Feedback != nil {
		d.Feedback = patch.Feedback
	}
	cp := d.Mentorship
	return &cp, nil
}

func (m *mockMentorshipRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.byID, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type mockAuditWriter struct {
	logs []*models.AuditLog
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) { c.calls++ }

func lecturerUser(id string) *models.User {
	return &models.User{ID: id, Role: models.RoleLecturer, Active: true}
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func lecturerClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleLecturer}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}
}

func newTestMentorshipService(repo *mockMentorshipRepo, users *mockUserReader) (*MentorshipService, *countingInvalidator) {
	inv := &countingInvalidator{}
	svc := NewMentorshipService(repo, users, &mockAuditWriter{}, inv, validator.New(), zap.NewNop())
	return svc, inv
}

func TestMentorshipCreateSuccess(t *testing.T) {
	repo := newMockMentorshipRepo()
	users := &mockUserReader{users: map[string]*models.User{"lec1": lecturerUser("lec1")}}
	svc, inv := newTestMentorshipService(repo, users)

	res, err := svc.Create(context.Background(), CreateMentorshipRequest{LecturerID: "lec1", Goals: "learn distributed systems"}, studentClaims("stu1"))
	require.NoError(t, err)
	assert.Equal(t, models.MentorshipPending, res.Status)
	assert.Equal(t, "stu1", res.Student.ID)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "stu1", repo.created[0].StudentID)
	assert.Equal(t, 1, inv.calls)
}

func TestMentorshipCreateMissingGoals(t *testing.T) {
	repo := newMockMentorshipRepo()
	users := &mockUserReader{users: map[string]*models.User{"lec1": lecturerUser("lec1")}}
	svc, _ := newTestMentorshipService(repo, users)

	_, err := svc.Create(context.Background(), CreateMentorshipRequest{LecturerID: "lec1"}, studentClaims("stu1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestMentorshipCreateForAnotherStudentForbidden(t *testing.T) {
	repo := newMockMentorshipRepo()
	users := &mockUserReader{users: map[string]*models.User{"lec1": lecturerUser("lec1")}}
	svc, _ := newTestMentorshipService(repo, users)

	_, err := svc.Create(context.Background(), CreateMentorshipRequest{StudentID: "someone-else", LecturerID: "lec1", Goals: "g"}, studentClaims("stu1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMentorshipCreateByLecturerForbidden(t *testing.T) {
	repo := newMockMentorshipRepo()
	users := &mockUserReader{users: map[string]*models.User{"lec1": lecturerUser("lec1")}}
	svc, _ := newTestMentorshipService(repo, users)

	_, err := svc.Create(context.Background(), CreateMentorshipRequest{LecturerID: "lec1", Goals: "g"}, lecturerClaims("lec2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMentorshipCreateTargetNotLecturer(t *testing.T) {
	repo := newMockMentorshipRepo()
	users := &mockUserReader{users: map[string]*models.User{"stu2": {ID: "stu2", Role: models.RoleStudent}}}
	svc, _ := newTestMentorshipService(repo, users)

	_, err := svc.Create(context.Background(), CreateMentorshipRequest{LecturerID: "stu2", Goals: "g"}, studentClaims("stu1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnprocessable.Code, appErrors.FromError(err).Code)
}

func TestMentorshipCreateDuplicatePending(t *testing.T) {
	repo := newMockMentorshipRepo()
	repo.createErr = repository.ErrDuplicatePending
	users := &mockUserReader{users: map[string]*models.User{"lec1": lecturerUser("lec1")}}
	svc, _ := newTestMentorshipService(repo, users)

	_, err := svc.Create(context.Background(), CreateMentorshipRequest{LecturerID: "lec1", Goals: "g"}, studentClaims("stu1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicateRequest.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestMentorshipCreateAdminRequiresStudentID(t *testing.T) {
	repo := newMockMentorshipRepo()
	users := &mockUserReader{users: map[string]*models.User{
		"lec1": lecturerUser("lec1"),
		"stu9": {ID: "stu9", Role: models.RoleStudent, Active: true},
	}}
	svc, _ := newTestMentorshipService(repo, users)

	_, err := svc.Create(context.Background(), CreateMentorshipRequest{LecturerID: "lec1", Goals: "g"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	res, err := svc.Create(context.Background(), CreateMentorshipRequest{StudentID: "stu9", LecturerID: "lec1", Goals: "g"}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, "stu9", res.Student.ID)
}

func TestMentorshipCreateAdminUnknownStudent(t *testing.T) {
	repo := newMockMentorshipRepo()
	users := &mockUserReader{users: map[string]*models.User{"lec1": lecturerUser("lec1")}}
	svc, _ := newTestMentorshipService(repo, users)

	_, err := svc.Create(context.Background(), CreateMentorshipRequest{StudentID: "ghost", LecturerID: "lec1", Goals: "g"}, adminClaims())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnprocessable.Code, appErr.Code)
	assert.Equal(t, 422, appErr.Status)
	assert.Empty(t, repo.created)

	_, err = svc.Create(context.Background(), CreateMentorshipRequest{StudentID: "lec1", LecturerID: "lec1", Goals: "g"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnprocessable.Code, appErrors.FromError(err).Code)
}

func TestMentorshipListPinsNonAdmins(t *testing.T) {
	repo := newMockMentorshipRepo()
	svc, _ := newTestMentorshipService(repo, &mockUserReader{})

	_, err := svc.List(context.Background(), models.MentorshipFilter{StudentID: "other"}, studentClaims("stu1"))
	require.NoError(t, err)
	assert.Equal(t, "stu1", repo.listFili.StudentID)

	_, err = svc.List(context.Background(), models.MentorshipFilter{}, lecturerClaims("lec1"))
	require.NoError(t, err)
	assert.Equal(t, "lec1", repo.listFili.LecturerID)

	_, err = svc.List(context.Background(), models.MentorshipFilter{StudentID: "any"}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, "any", repo.listFili.StudentID)
}

func TestMentorshipGetHiddenFromThirdParties(t *testing.T) {
	repo := newMockMentorshipRepo()
	repo.byID["m1"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m1", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipPending}}
	svc, _ := newTestMentorshipService(repo, &mockUserReader{})

	_, err := svc.Get(context.Background(), "m1", studentClaims("stu2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	res, err := svc.Get(context.Background(), "m1", studentClaims("stu1"))
	require.NoError(t, err)
	assert.Equal(t, "m1", res.ID)
}

func TestMentorshipPatchEmpty(t *testing.T) {
	repo := newMockMentorshipRepo()
	svc, _ := newTestMentorshipService(repo, &mockUserReader{})

	_, err := svc.Patch(context.Background(), "m1", PatchMentorshipRequest{}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMentorshipPatchAcceptByLecturer(t *testing.T) {
	repo := newMockMentorshipRepo()
	repo.byID["m1"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m1", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipPending}}
	svc, inv := newTestMentorshipService(repo, &mockUserReader{})

	active := models.MentorshipActive
	res, err := svc.Patch(context.Background(), "m1", PatchMentorshipRequest{Status: &active}, lecturerClaims("lec1"))
	require.NoError(t, err)
	assert.Equal(t, models.MentorshipActive, res.Status)
	assert.Equal(t, 1, inv.calls)
}

func TestMentorshipPatchInvalidTransition(t *testing.T) {
	repo := newMockMentorshipRepo()
	repo.byID["m1"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m1", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipPending}}
	svc, _ := newTestMentorshipService(repo, &mockUserReader{})

	completed := models.MentorshipCompleted
	_, err := svc.Patch(context.Background(), "m1", PatchMentorshipRequest{Status: &completed}, lecturerClaims("lec1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
	assert.Empty(t, repo.patched)
}

func TestMentorshipPatchRejectedIsTerminal(t *testing.T) {
	repo := newMockMentorshipRepo()
	repo.byID["m1"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m1", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipRejected}}
	svc, _ := newTestMentorshipService(repo, &mockUserReader{})

	active := models.MentorshipActive
	_, err := svc.Patch(context.Background(), "m1", PatchMentorshipRequest{Status: &active}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestMentorshipPatchReviewByWrongLecturer(t *testing.T) {
	repo := newMockMentorshipRepo()
	repo.byID["m1"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m1", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipPending}}
	svc, _ := newTestMentorshipService(repo, &mockUserReader{})

	active := models.MentorshipActive
	_, err := svc.Patch(context.Background(), "m1", PatchMentorshipRequest{Status: &active}, lecturerClaims("lec2"))
	require.Error(t, err)
	// Non-parties cannot even see the row.
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMentorshipPatchStudentCannotReviewOwn(t *testing.T) {
	repo := newMockMentorshipRepo()
	repo.byID["m1"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m1", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipPending}}
	svc, _ := newTestMentorshipService(repo, &mockUserReader{})

	active := models.MentorshipActive
	_, err := svc.Patch(context.Background(), "m1", PatchMentorshipRequest{Status: &active}, studentClaims("stu1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMentorshipPatchRatingBounds(t *testing.T) {
	repo := newMockMentorshipRepo()
	repo.byID["m1"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m1", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipCompleted}}
	svc, _ := newTestMentorshipService(repo, &mockUserReader{})

	high := 6
	_, err := svc.Patch(context.Background(), "m1", PatchMentorshipRequest{Rating: &high}, studentClaims("stu1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	ok := 5
	res, err := svc.Patch(context.Background(), "m1", PatchMentorshipRequest{Rating: &ok}, studentClaims("stu1"))
	require.NoError(t, err)
	require.NotNil(t, res.Rating)
	assert.Equal(t, 5, *res.Rating)
}

func TestMentorshipPatchRatingBeforeCompletion(t *testing.T) {
	repo := newMockMentorshipRepo()
	repo.byID["m1"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m1", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipPending}}
	repo.byID["m2"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m2", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipActive}}
	svc, _ := newTestMentorshipService(repo, &mockUserReader{})

	rating := 5
	_, err := svc.Patch(context.Background(), "m1", PatchMentorshipRequest{Rating: &rating}, studentClaims("stu1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnprocessable.Code, appErr.Code)
	assert.Equal(t, 422, appErr.Status)

	feedback := "great guidance"
	_, err = svc.Patch(context.Background(), "m2", PatchMentorshipRequest{Feedback: &feedback}, studentClaims("stu1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnprocessable.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.patched)
}

func TestMentorshipPatchRatingWithClosingPatch(t *testing.T) {
	repo := newMockMentorshipRepo()
	repo.byID["m1"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m1", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipActive}}
	svc, _ := newTestMentorshipService(repo, &mockUserReader{})

	completed := models.MentorshipCompleted
	rating := 4
	res, err := svc.Patch(context.Background(), "m1", PatchMentorshipRequest{Status: &completed, Rating: &rating}, studentClaims("stu1"))
	require.NoError(t, err)
	assert.Equal(t, models.MentorshipCompleted, res.Status)
	require.NotNil(t, res.Rating)
	assert.Equal(t, 4, *res.Rating)
}

func TestMentorshipPatchRatingForbiddenForLecturer(t *testing.T) {
	repo := newMockMentorshipRepo()
	repo.byID["m1"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m1", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipCompleted}}
	svc, _ := newTestMentorshipService(repo, &mockUserReader{})

	rating := 4
	_, err := svc.Patch(context.Background(), "m1", PatchMentorshipRequest{Rating: &rating}, lecturerClaims("lec1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMentorshipPatchSparseKeepsOtherFields(t *testing.T) {
	start := time.Now().UTC()
	repo := newMockMentorshipRepo()
	repo.byID["m1"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m1", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipActive, Goals: "original goals", StartDate: &start}}
	svc, _ := newTestMentorshipService(repo, &mockUserReader{})

	notes := "weekly sync moved to fridays"
	res, err := svc.Patch(context.Background(), "m1", PatchMentorshipRequest{Notes: &notes}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, notes, res.Notes)
	assert.Equal(t, "original goals", res.Goals)
	assert.Equal(t, models.MentorshipActive, res.Status)

	patch := repo.patched["m1"]
	assert.Nil(t, patch.Status)
	assert.Nil(t, patch.Rating)
	assert.NotNil(t, patch.Notes)
}

func TestMentorshipDelete(t *testing.T) {
	repo := newMockMentorshipRepo()
	repo.byID["m1"] = &models.MentorshipDetail{Mentorship: models.Mentorship{ID: "m1", StudentID: "stu1", LecturerID: "lec1", Status: models.MentorshipRejected}}
	audit := &mockAuditWriter{}
	svc := NewMentorshipService(repo, &mockUserReader{}, audit, nil, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "m1", adminClaims(), models.LoginRequest{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, repo.deleted)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionMentorshipDelete, audit.logs[0].Action)

	err = svc.Delete(context.Background(), "m1", adminClaims(), models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMentorshipTransitionTable(t *testing.T) {
	cases := []struct {
		from    models.MentorshipStatus
		to      models.MentorshipStatus
		allowed bool
	}{
		{models.MentorshipPending, models.MentorshipActive, true},
		{models.MentorshipPending, models.MentorshipRejected, true},
		{models.MentorshipPending, models.MentorshipCompleted, false},
		{models.MentorshipActive, models.MentorshipCompleted, true},
		{models.MentorshipActive, models.MentorshipRejected, false},
		{models.MentorshipRejected, models.MentorshipActive, false},
		{models.MentorshipCompleted, models.MentorshipActive, false},
		{models.MentorshipActive, models.MentorshipActive, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
