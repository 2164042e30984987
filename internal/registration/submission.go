package registration

import (
	"errors"
	"time"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// Submission is a single RSVP form entry. Only first/last name and email are
// required at intake; the rest is whatever the visitor filled in.
type Submission struct {
	ID          int       `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	ShirtSize   string    `json:"shirt_size,omitempty"`
	SneakerSize string    `json:"sneaker_size,omitempty"`
	CheckedIn   bool      `json:"checked_in"`
	CreatedAt   time.Time `json:"created_at"`
}
