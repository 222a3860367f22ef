package models

import "time"

// MentorshipStatus is the lifecycle state of a mentorship request.
type MentorshipStatus string

const (
	MentorshipPending   MentorshipStatus = "PENDING"
	MentorshipActive    MentorshipStatus = "ACTIVE"
	MentorshipCompleted MentorshipStatus = "COMPLETED"
	MentorshipRejected  MentorshipStatus = "REJECTED"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s MentorshipStatus) Valid() bool {
	switch s {
	case MentorshipPending, MentorshipActive, MentorshipCompleted, MentorshipRejected:
		return true
	}
	return false
}

// mentorshipTransitions is the allowed state machine:
// PENDING may be reviewed to ACTIVE or REJECTED, ACTIVE may be closed as
// COMPLETED. COMPLETED and REJECTED are terminal.
var mentorshipTransitions = map[MentorshipStatus][]MentorshipStatus{
	MentorshipPending: {MentorshipActive, MentorshipRejected},
	MentorshipActive:  {MentorshipCompleted},
}

// CanTransition reports whether moving from s to next is a legal move.
func (s MentorshipStatus) CanTransition(next MentorshipStatus) bool {
	for _, allowed := range mentorshipTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Mentorship links one student and one lecturer with a status and goal text.
type Mentorship struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	LecturerID string           `db:"lecturer_id" json:"lecturer_id"`
	Status     MentorshipStatus `db:"status" json:"status"`
	Goals      string           `db:"goals" json:"goals"`
	StartDate  *time.Time       `db:"start_date" json:"start_date,omitempty"`
	Notes      string           `db:"notes" json:"notes"`
	Rating     *int             `db:"rating" json:"rating,omitempty"`
	Feedback   *string          `db:"feedback" json:"feedback,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// MentorshipParty is the embedded view of a linked user in listings.
type MentorshipParty struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

// MentorshipDetail expands a mentorship with both linked parties.
type MentorshipDetail struct {
	Mentorship
	StudentName    string `db:"student_name" json:"-"`
	StudentEmail   string `db:"student_email" json:"-"`
	LecturerName   string `db:"lecturer_name" json:"-"`
	LecturerEmail  string `db:"lecturer_email" json:"-"`
}

// Student returns the student party view.
func (d *MentorshipDetail) Student() MentorshipParty {
	return MentorshipParty{ID: d.StudentID, FullName: d.StudentName, Email: d.StudentEmail}
}

// Lecturer returns the lecturer party view.
func (d *MentorshipDetail) Lecturer() MentorshipParty {
	return MentorshipParty{ID: d.LecturerID, FullName: d.LecturerName, Email: d.LecturerEmail}
}

// MentorshipFilter captures the listing filters; non-empty fields intersect.
type MentorshipFilter struct {
	StudentID  string
	LecturerID string
	Status     *MentorshipStatus
}

// MentorshipPatch is a sparse update; nil fields are left untouched.
type MentorshipPatch struct {
	Status    *MentorshipStatus
	Notes     *string
	Rating    *int
	Feedback  *string
	StartDate *time.Time
}

// Empty reports whether the patch carries no field at all.
func (p MentorshipPatch) Empty() bool {
	return p.Status == nil && p.Notes == nil && p.Rating == nil && p.Feedback == nil && p.StartDate == nil
}

// MentorshipStatusCount aggregates requests per lifecycle state.
type MentorshipStatusCount struct {
	Status MentorshipStatus `db:"status" json:"status"`
	Count  int              `db:"count" json:"count"`
}
