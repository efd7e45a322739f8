package models

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is a person known to the platform. Candidates are created on first
// sight (profile import, self-registration, or being referenced by a connector)
// and are never hard-deleted while a Match or Recommendation points at them.
type Candidate struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	CurrentEmployer string    `json:"current_employer,omitempty"`
	CurrentTitle    string    `json:"current_title,omitempty"`
	Email           string    `json:"email,omitempty"`
	Location        string    `json:"location,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
