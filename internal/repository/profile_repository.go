package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noel-arch/mentor-match-api/internal/models"
)

// ErrProfileExists is returned when a user already has a profile row.
var ErrProfileExists = errors.New("profile already exists for user")

// ProfileRepository provides database access for user profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `p.id, p.user_id, p.major, p.year, p.department, p.expertise, p.research_areas, p.years_of_experience, p.bio, p.max_students, p.created_at, p.updated_at`

const profileDetailColumns = profileColumns + `,
	u.full_name AS user_full_name, u.email AS user_email, u.role AS user_role`

// FindByID returns a profile joined with its owning user.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.ProfileDetail, error) {
	query := `SELECT ` + profileDetailColumns + ` FROM profiles p JOIN users u ON u.id = p.user_id WHERE p.id = $1 LIMIT 1`
	var detail models.ProfileDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	return &detail, nil
}

// FindByUserID returns the profile owned by the given user.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.ProfileDetail, error) {
	query := `SELECT ` + profileDetailColumns + ` FROM profiles p JOIN users u ON u.id = p.user_id WHERE p.user_id = $1 LIMIT 1`
	var detail models.ProfileDetail
	if err := r.db.GetContext(ctx, &detail, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by user id: %w", err)
	}
	return &detail, nil
}

// List returns profiles joined with user identity, optionally scoped to one user.
func (r *ProfileRepository) List(ctx context.Context, userID string) ([]models.ProfileDetail, error) {
	query := `SELECT ` + profileDetailColumns + ` FROM profiles p JOIN users u ON u.id = p.user_id`
	var args []interface{}
	if userID != "" {
		query += ` WHERE p.user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY p.created_at DESC`

	rows := []models.ProfileDetail{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return rows, nil
}

// Create inserts a profile row. A second profile for the same user surfaces
// as ErrProfileExists via the unique constraint on user_id.
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	const query = `INSERT INTO profiles (id, user_id, major, year, department, expertise, research_areas, years_of_experience, bio, max_students, created_at, updated_at) VALUES (:id, :user_id, :major, :year, :department, :expertise, :research_areas, :years_of_experience, :bio, :max_students, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return ErrProfileExists
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// ProfilePatch is a sparse profile update; nil fields are left untouched.
type ProfilePatch struct {
	Major             *string
	Year              *int
	Department        *string
	Expertise         *pq.StringArray
	ResearchAreas     *pq.StringArray
	YearsOfExperience *int
	Bio               *string
	MaxStudents       *int
}

// UpdateSparse applies only the provided fields and returns the updated row.
func (r *ProfileRepository) UpdateSparse(ctx context.Context, id string, patch ProfilePatch) (*models.Profile, error) {
	sets := []string{}
	args := []interface{}{}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Major != nil {
		appendSet("major", *patch.Major)
	}
	if patch.Year != nil {
		appendSet("year", *patch.Year)
	}
	if patch.Department != nil {
		appendSet("department", *patch.Department)
	}
	if patch.Expertise != nil {
		appendSet("expertise", *patch.Expertise)
	}
	if patch.ResearchAreas != nil {
		appendSet("research_areas", *patch.ResearchAreas)
	}
	if patch.YearsOfExperience != nil {
		appendSet("years_of_experience", *patch.YearsOfExperience)
	}
	if patch.Bio != nil {
		appendSet("bio", *patch.Bio)
	}
	if patch.MaxStudents != nil {
		appendSet("max_students", *patch.MaxStudents)
	}
	appendSet("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id = $%d RETURNING id, user_id, major, year, department, expertise, research_areas, years_of_experience, bio, max_students, created_at, updated_at`, strings.Join(sets, ", "), len(args))

	var updated models.Profile
	if err := r.db.GetContext(ctx, &updated, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &updated, nil
}
