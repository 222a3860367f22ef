package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noel-arch/mentor-match-api/internal/models"
)

// DirectoryRepository serves the lecturer directory. The original UI pulled
// the full lecturer list and filtered it per keystroke in the browser; here
// the search and department narrowing run in SQL instead.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository creates a new instance of DirectoryRepository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

const lecturerColumns = `u.id, u.full_name, u.email, p.department, COALESCE(p.expertise, '{}') AS expertise, COALESCE(p.research_areas, '{}') AS research_areas, p.years_of_experience, p.bio, p.max_students, u.created_at`

// ListLecturers returns active lecturers with profile data, filtered and paged.
func (r *DirectoryRepository) ListLecturers(ctx context.Context, filter models.DirectoryFilter) ([]models.LecturerListing, int, error) {
	baseQuery := ` FROM users u LEFT JOIN profiles p ON p.user_id = u.id WHERE u.role = 'LECTURER' AND u.active = TRUE`
	var args []interface{}

	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(args)
		baseQuery += fmt.Sprintf(` AND (LOWER(u.full_name) LIKE $%d OR LOWER(u.email) LIKE $%d OR LOWER(COALESCE(p.department, '')) LIKE $%d OR EXISTS (SELECT 1 FROM unnest(COALESCE(p.expertise, '{}')) AS e WHERE LOWER(e) LIKE $%d))`, n, n, n, n)
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		baseQuery += fmt.Sprintf(" AND p.department = $%d", len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s%s ORDER BY u.full_name ASC LIMIT %d OFFSET %d", lecturerColumns, baseQuery, pageSize, offset)

	rows := []models.LecturerListing{}
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list lecturers: %w", err)
	}

	countQuery := "SELECT COUNT(*)" + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lecturers: %w", err)
	}

	return rows, total, nil
}

// Departments returns the distinct department names carried by lecturer profiles.
func (r *DirectoryRepository) Departments(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT p.department FROM profiles p JOIN users u ON u.id = p.user_id WHERE u.role = 'LECTURER' AND p.department IS NOT NULL ORDER BY p.department ASC`
	departments := []string{}
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}
