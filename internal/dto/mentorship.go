package dto

import (
	"time"

	"github.com/noel-arch/mentor-match-api/internal/models"
)

// MentorshipResponse is the wire shape of a mentorship request, expanded
// with both linked parties.
type MentorshipResponse struct {
	ID        string                  `json:"id"`
	Status    models.MentorshipStatus `json:"status"`
	Goals     string                  `json:"goals"`
	StartDate *time.Time              `json:"start_date,omitempty"`
	Notes     string                  `json:"notes"`
	Rating    *int                    `json:"rating,omitempty"`
	Feedback  *string                 `json:"feedback,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	Student   models.MentorshipParty  `json:"student"`
	Lecturer  models.MentorshipParty  `json:"lecturer"`
}

// NewMentorshipResponse maps a joined row onto the wire shape.
func NewMentorshipResponse(d models.MentorshipDetail) MentorshipResponse {
	return MentorshipResponse{
		ID:        d.ID,
		Status:    d.Status,
		Goals:     d.Goals,
		StartDate: d.StartDate,
		Notes:     d.Notes,
		Rating:    d.Rating,
		Feedback:  d.Feedback,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Student:   d.Student(),
		Lecturer:  d.Lecturer(),
	}
}

// NewMentorshipResponses maps a slice of joined rows.
func NewMentorshipResponses(details []models.MentorshipDetail) []MentorshipResponse {
	out := make([]MentorshipResponse, len(details))
	for i, d := range details {
		out[i] = NewMentorshipResponse(d)
	}
	return out
}
