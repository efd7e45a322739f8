package models

import (
	"time"

	"github.com/google/uuid"
)

// Connector is a member of the referral network who can vouch for candidates
// they know. Every connector is also a candidate record.
type Connector struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Relationship is an append-only edge from a connector to a candidate they
// know ("worked together", imported from a roster, ...). Edges are facts, not
// state: they are added, never updated.
type Relationship struct {
	ID               uuid.UUID `json:"id"`
	ConnectorID      uuid.UUID `json:"connector_id"`
	CandidateID      uuid.UUID `json:"candidate_id"`
	RelationshipType string    `json:"relationship_type"`
	ConfidenceScore  float64   `json:"confidence_score"`
	Source           string    `json:"source"`
	CreatedAt        time.Time `json:"created_at"`
}
