package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noel-arch/mentor-match-api/internal/models"
)

func profileDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "major", "year", "department", "expertise", "research_areas", "years_of_experience", "bio", "max_students", "created_at", "updated_at",
		"user_full_name", "user_email", "user_role",
	})
}

func TestProfileFindByUserID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	rows := profileDetailRows().
		AddRow("p1", "u1", nil, nil, "Computer Science", "{distributed systems,databases}", "{}", 8, nil, 5, now, now,
			"Lecturer One", "lec1@example.com", string(models.RoleLecturer))
	mock.ExpectQuery("SELECT .* FROM profiles p JOIN users u").WithArgs("u1").WillReturnRows(rows)

	detail, err := repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Lecturer One", detail.UserFullName)
	require.NotNil(t, detail.Department)
	assert.Equal(t, "Computer Science", *detail.Department)
	assert.Equal(t, pq.StringArray{"distributed systems", "databases"}, detail.Expertise)
}

func TestProfileCreateDuplicateUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec("INSERT INTO profiles").
		WillReturnError(&pq.Error{Code: pq.ErrorCode(pgUniqueViolation), Constraint: "profiles_user_id_key"})

	err := repo.Create(context.Background(), &models.Profile{UserID: "u1"})
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestProfileUpdateSparse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	returned := sqlmock.NewRows([]string{"id", "user_id", "major", "year", "department", "expertise", "research_areas", "years_of_experience", "bio", "max_students", "created_at", "updated_at"}).
		AddRow("p1", "u1", nil, nil, "Mathematics", "{}", "{}", nil, nil, nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles SET department = $1, updated_at = $2 WHERE id = $3 RETURNING")).
		WillReturnRows(returned)

	dept := "Mathematics"
	updated, err := repo.UpdateSparse(context.Background(), "p1", ProfilePatch{Department: &dept})
	require.NoError(t, err)
	require.NotNil(t, updated.Department)
	assert.Equal(t, "Mathematics", *updated.Department)
	assert.NoError(t, mock.ExpectationsWereMet())
}
