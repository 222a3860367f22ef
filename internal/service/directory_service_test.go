package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noel-arch/mentor-match-api/internal/models"
)

type mockDirectoryRepo struct {
	lecturers []models.LecturerListing
	total     int
	listCalls int
}

func (m *mockDirectoryRepo) ListLecturers(ctx context.Context, filter models.DirectoryFilter) ([]models.LecturerListing, int, error) {
	m.listCalls++
	return m.lecturers, m.total, nil
}

func (m *mockDirectoryRepo) Departments(ctx context.Context) ([]string, error) {
	return []string{"Computer Science", "Mathematics"}, nil
}

func TestDirectoryListCachesPerFilter(t *testing.T) {
	repo := &mockDirectoryRepo{lecturers: []models.LecturerListing{{ID: "lec1", FullName: "Dr. Wijaya"}}, total: 1}
	cache := NewCacheService(newMemCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewDirectoryService(repo, cache, time.Minute, zap.NewNop())

	filter := models.DirectoryFilter{Search: "wij", Page: 1, PageSize: 20}

	lecturers, pagination, cached, err := svc.ListLecturers(context.Background(), filter)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, lecturers, 1)
	assert.Equal(t, 1, pagination.TotalCount)

	_, _, cached, err = svc.ListLecturers(context.Background(), filter)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, repo.listCalls)

	// A different filter misses and hits the repository again.
	_, _, cached, err = svc.ListLecturers(context.Background(), models.DirectoryFilter{Department: "Mathematics", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, repo.listCalls)
}

func TestDirectoryInvalidateDropsPages(t *testing.T) {
	repo := &mockDirectoryRepo{total: 0}
	cache := NewCacheService(newMemCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewDirectoryService(repo, cache, time.Minute, zap.NewNop())

	filter := models.DirectoryFilter{Page: 1, PageSize: 20}
	_, _, _, err := svc.ListLecturers(context.Background(), filter)
	require.NoError(t, err)

	svc.Invalidate(context.Background())

	_, _, cached, err := svc.ListLecturers(context.Background(), filter)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, repo.listCalls)
}

func TestDirectoryListWithoutCache(t *testing.T) {
	repo := &mockDirectoryRepo{}
	svc := NewDirectoryService(repo, nil, time.Minute, zap.NewNop())

	_, pagination, cached, err := svc.ListLecturers(context.Background(), models.DirectoryFilter{})
	require.NoError(t, err)
	assert.False(t, cached)
	// Defaults applied when the filter leaves paging unset.
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}

func TestDirectoryDepartments(t *testing.T) {
	svc := NewDirectoryService(&mockDirectoryRepo{}, nil, time.Minute, zap.NewNop())

	departments, err := svc.Departments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Computer Science", "Mathematics"}, departments)
}
