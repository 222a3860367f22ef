package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Profile holds role-specific attributes attached to a user. Student fields
// (major, year) and lecturer fields (department, expertise, capacity) share
// one row; unused columns stay NULL.
type Profile struct {
	ID                string         `db:"id" json:"id"`
	UserID            string         `db:"user_id" json:"user_id"`
	Major             *string        `db:"major" json:"major,omitempty"`
	Year              *int           `db:"year" json:"year,omitempty"`
	Department        *string        `db:"department" json:"department,omitempty"`
	Expertise         pq.StringArray `db:"expertise" json:"expertise"`
	ResearchAreas     pq.StringArray `db:"research_areas" json:"research_areas"`
	YearsOfExperience *int           `db:"years_of_experience" json:"years_of_experience,omitempty"`
	Bio               *string        `db:"bio" json:"bio,omitempty"`
	MaxStudents       *int           `db:"max_students" json:"max_students,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// ProfileDetail joins a profile with its owning user.
type ProfileDetail struct {
	Profile
	UserFullName string   `db:"user_full_name" json:"user_full_name"`
	UserEmail    string   `db:"user_email" json:"user_email"`
	UserRole     UserRole `db:"user_role" json:"user_role"`
}

// StringList accepts either a JSON array of strings or a single
// comma-separated string, matching the lenient input contract of the
// original profile form.
type StringList []string

// UnmarshalJSON implements the lenient decoding.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = arr
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*l = out
	return nil
}
