package dto

import (
	"time"

	"github.com/noel-arch/mentor-match-api/internal/models"
)

// AdminDashboardResponse summarises the whole platform for the admin view.
type AdminDashboardResponse struct {
	UsersByRole      map[models.UserRole]int         `json:"users_by_role"`
	RequestsByStatus map[models.MentorshipStatus]int `json:"requests_by_status"`
	AverageRating    float64                         `json:"average_rating"`
	RecentRequests   []MentorshipResponse            `json:"recent_requests"`
	GeneratedAt      time.Time                       `json:"generated_at"`
}

// LecturerDashboardResponse summarises a lecturer's mentoring load.
type LecturerDashboardResponse struct {
	PendingCount   int       `json:"pending_count"`
	ActiveCount    int       `json:"active_count"`
	CompletedCount int       `json:"completed_count"`
	RejectedCount  int       `json:"rejected_count"`
	MaxStudents    *int      `json:"max_students,omitempty"`
	CapacityLeft   *int      `json:"capacity_left,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// StudentDashboardResponse summarises a student's requests.
type StudentDashboardResponse struct {
	PendingCount   int       `json:"pending_count"`
	ActiveCount    int       `json:"active_count"`
	CompletedCount int       `json:"completed_count"`
	RejectedCount  int       `json:"rejected_count"`
	GeneratedAt    time.Time `json:"generated_at"`
}
