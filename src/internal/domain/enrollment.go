package domain

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// Enrollment links a student to a course offering. Course is a value copy
// attached at fetch time (read-only join), not a live reference.
type Enrollment struct {
	ID              string           `json:"id"`
	StudentID       string           `json:"student_id"`
	Course          Course           `json:"course"`
	StartDate       time.Time        `json:"start_date"`
	ExpectedEndDate time.Time        `json:"expected_end_date"`
	Status          EnrollmentStatus `json:"status"`
	EnrolledAt      time.Time        `json:"enrolled_at"`
}

// TimeRemaining is the whole-unit breakdown of the span between now and an
// enrollment's expected end date. Derived and ephemeral: recomputed on every
// countdown tick, never persisted. All fields are zero once the end has passed.
type TimeRemaining struct {
	Weeks   int `json:"weeks"`
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// Expired reports whether the countdown has reached its floor.
func (t TimeRemaining) Expired() bool {
	return t.Weeks == 0 && t.Days == 0 && t.Hours == 0 && t.Minutes == 0
}
