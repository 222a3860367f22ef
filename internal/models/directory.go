package models

import (
	"time"

	"github.com/lib/pq"
)

// LecturerListing is one row of the lecturer directory: the user joined
// with their (possibly absent) profile.
type LecturerListing struct {
	ID                string         `db:"id" json:"id"`
	FullName          string         `db:"full_name" json:"full_name"`
	Email             string         `db:"email" json:"email"`
	Department        *string        `db:"department" json:"department,omitempty"`
	Expertise         pq.StringArray `db:"expertise" json:"expertise"`
	ResearchAreas     pq.StringArray `db:"research_areas" json:"research_areas"`
	YearsOfExperience *int           `db:"years_of_experience" json:"years_of_experience,omitempty"`
	Bio               *string        `db:"bio" json:"bio,omitempty"`
	MaxStudents       *int           `db:"max_students" json:"max_students,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// DirectoryFilter holds the lecturer directory search parameters.
// Search is a case-insensitive substring match across name, email,
// department and expertise membership; Department is an exact match.
type DirectoryFilter struct {
	Search     string
	Department string
	Page       int
	PageSize   int
}
