package domain

import "time"

type Course struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	DurationWeeks int       `json:"duration_weeks"`
	CreatedAt     time.Time `json:"created_at"`
}

// RunLength is the course duration as a wall-clock span.
func (c Course) RunLength() time.Duration {
	return time.Duration(c.DurationWeeks) * 7 * 24 * time.Hour
}
