package models

import (
	"time"

	"github.com/google/uuid"
)

// RecommendationLink is the advisory persisted record of an issued link token.
// The token itself is the authoritative credential; this row only tracks
// bookkeeping (usage, an optionally shorter expiry) and its absence must never
// block validation.
type RecommendationLink struct {
	Token       string     `json:"token"`
	ConnectorID uuid.UUID  `json:"connector_id"`
	JobID       uuid.UUID  `json:"job_id"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
}
