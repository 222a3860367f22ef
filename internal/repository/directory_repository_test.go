package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noel-arch/mentor-match-api/internal/models"
)

func lecturerListingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "full_name", "email", "department", "expertise", "research_areas", "years_of_experience", "bio", "max_students", "created_at",
	})
}

func TestListLecturers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.role = 'LECTURER' AND u.active = TRUE ORDER BY u.full_name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(lecturerListingRows().
			AddRow("lec1", "Lecturer One", "lec1@example.com", "Physics", "{optics}", "{}", 10, nil, 4, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users u LEFT JOIN profiles p")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	lecturers, total, err := repo.ListLecturers(context.Background(), models.DirectoryFilter{})
	require.NoError(t, err)
	require.Len(t, lecturers, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Lecturer One", lecturers[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLecturersSearchAndDepartment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("AND p.department = $2 ORDER BY u.full_name ASC")).
		WithArgs("%data%", "Computer Science").
		WillReturnRows(lecturerListingRows().
			AddRow("lec2", "Lecturer Two", "lec2@example.com", "Computer Science", "{data mining}", "{}", nil, nil, nil, now))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("%data%", "Computer Science").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	lecturers, _, err := repo.ListLecturers(context.Background(), models.DirectoryFilter{Search: "Data", Department: "Computer Science"})
	require.NoError(t, err)
	require.Len(t, lecturers, 1)
	assert.Equal(t, []string{"data mining"}, []string(lecturers[0].Expertise))
}

func TestDepartments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT p.department FROM profiles p")).
		WillReturnRows(sqlmock.NewRows([]string{"department"}).AddRow("Mathematics").AddRow("Physics"))

	departments, err := repo.Departments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Mathematics", "Physics"}, departments)
}
