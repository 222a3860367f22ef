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

// ErrDuplicatePending is returned when the partial unique index on
// (student_id, lecturer_id) WHERE status = 'PENDING' rejects an insert.
// The index makes the duplicate guard atomic; there is no probe-then-insert
// race to worry about.
var ErrDuplicatePending = errors.New("pending mentorship already exists for pair")

const pgUniqueViolation = "23505"

// MentorshipRepository provides database access for mentorship requests.
type MentorshipRepository struct {
	db *sqlx.DB
}

// NewMentorshipRepository creates a new instance of MentorshipRepository.
func NewMentorshipRepository(db *sqlx.DB) *MentorshipRepository {
	return &MentorshipRepository{db: db}
}

const mentorshipColumns = `m.id, m.student_id, m.lecturer_id, m.status, m.goals, m.start_date, m.notes, m.rating, m.feedback, m.created_at, m.updated_at`

const mentorshipDetailColumns = mentorshipColumns + `,
	s.full_name AS student_name, s.email AS student_email,
	l.full_name AS lecturer_name, l.email AS lecturer_email`

const mentorshipJoins = ` FROM mentorships m
	JOIN users s ON s.id = m.student_id
	JOIN users l ON l.id = m.lecturer_id`

// Create inserts a new mentorship request. A pending duplicate for the same
// (student, lecturer) pair surfaces as ErrDuplicatePending.
func (r *MentorshipRepository) Create(ctx context.Context, m *models.Mentorship) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	const query = `INSERT INTO mentorships (id, student_id, lecturer_id, status, goals, start_date, notes, rating, feedback, created_at, updated_at) VALUES (:id, :student_id, :lecturer_id, :status, :goals, :start_date, :notes, :rating, :feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return ErrDuplicatePending
		}
		return fmt.Errorf("create mentorship: %w", err)
	}
	return nil
}

// FindByID returns a mentorship expanded with both linked parties.
func (r *MentorshipRepository) FindByID(ctx context.Context, id string) (*models.MentorshipDetail, error) {
	query := `SELECT ` + mentorshipDetailColumns + mentorshipJoins + ` WHERE m.id = $1 LIMIT 1`
	var detail models.MentorshipDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find mentorship by id: %w", err)
	}
	return &detail, nil
}

// List returns mentorships matching the filter; filters intersect.
func (r *MentorshipRepository) List(ctx context.Context, filter models.MentorshipFilter) ([]models.MentorshipDetail, error) {
	query := `SELECT ` + mentorshipDetailColumns + mentorshipJoins + ` WHERE 1=1`
	var args []interface{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += fmt.Sprintf(" AND m.student_id = $%d", len(args))
	}
	if filter.LecturerID != "" {
		args = append(args, filter.LecturerID)
		query += fmt.Sprintf(" AND m.lecturer_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND m.status = $%d", len(args))
	}

	query += " ORDER BY m.created_at DESC"

	rows := []models.MentorshipDetail{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list mentorships: %w", err)
	}
	return rows, nil
}

// UpdateSparse applies only the provided patch fields and returns the
// updated row. Untouched columns keep their prior values.
func (r *MentorshipRepository) UpdateSparse(ctx context.Context, id string, patch models.MentorshipPatch) (*models.Mentorship, error) {
	sets := []string{}
	args := []interface{}{}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		appendSet("status", *patch.Status)
	}
	if patch.Notes != nil {
		appendSet("notes", *patch.Notes)
	}
	if patch.Rating != nil {
		appendSet("rating", *patch.Rating)
	}
	if patch.Feedback != nil {
		appendSet("feedback", *patch.Feedback)
	}
	if patch.StartDate != nil {
		appendSet("start_date", *patch.StartDate)
	}
	appendSet("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE mentorships SET %s WHERE id = $%d RETURNING id, student_id, lecturer_id, status, goals, start_date, notes, rating, feedback, created_at, updated_at`, strings.Join(sets, ", "), len(args))

	var updated models.Mentorship
	if err := r.db.GetContext(ctx, &updated, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update mentorship: %w", err)
	}
	return &updated, nil
}

// Delete removes the mentorship row.
func (r *MentorshipRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM mentorships WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete mentorship: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus aggregates requests per status, optionally scoped to one
// party. Empty ids widen the aggregation.
func (r *MentorshipRepository) CountByStatus(ctx context.Context, studentID, lecturerID string) ([]models.MentorshipStatusCount, error) {
	query := `SELECT status, COUNT(*) AS count FROM mentorships WHERE 1=1`
	var args []interface{}
	if studentID != "" {
		args = append(args, studentID)
		query += fmt.Sprintf(" AND student_id = $%d", len(args))
	}
	if lecturerID != "" {
		args = append(args, lecturerID)
		query += fmt.Sprintf(" AND lecturer_id = $%d", len(args))
	}
	query += " GROUP BY status"

	rows := []models.MentorshipStatusCount{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count mentorships by status: %w", err)
	}
	return rows, nil
}

// AverageCompletedRating returns the mean rating over completed mentorships
// that carry one. Zero with no error means no rated rows exist.
func (r *MentorshipRepository) AverageCompletedRating(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(AVG(rating), 0) FROM mentorships WHERE status = 'COMPLETED' AND rating IS NOT NULL`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query); err != nil {
		return 0, fmt.Errorf("average completed rating: %w", err)
	}
	return avg, nil
}

// Recent returns the newest requests expanded with party names.
func (r *MentorshipRepository) Recent(ctx context.Context, limit int) ([]models.MentorshipDetail, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT %s%s ORDER BY m.created_at DESC LIMIT %d`, mentorshipDetailColumns, mentorshipJoins, limit)
	rows := []models.MentorshipDetail{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("recent mentorships: %w", err)
	}
	return rows, nil
}
