package models

import (
	"time"

	"github.com/google/uuid"
)

// RecommendationStatus is the per-recommendation review state. contracted is
// terminal for the recommendation; reopening a rejected recommendation is not
// supported.
type RecommendationStatus string

const (
	RecommendationPending    RecommendationStatus = "pending"
	RecommendationInReview   RecommendationStatus = "in_review"
	RecommendationRejected   RecommendationStatus = "rejected"
	RecommendationContracted RecommendationStatus = "contracted"
)

// IsValidRecommendationStatus reports whether s is one of the four enum values.
func IsValidRecommendationStatus(s RecommendationStatus) bool {
	switch s {
	case RecommendationPending, RecommendationInReview, RecommendationRejected, RecommendationContracted:
		return true
	}
	return false
}

// Recommendation is a connector vouching for a candidate (or an out-of-network
// profile referenced only by URL, in which case CandidateID is nil) for a job.
type Recommendation struct {
	ID                 uuid.UUID            `json:"id"`
	JobID              uuid.UUID            `json:"job_id"`
	CandidateID        *uuid.UUID           `json:"candidate_id,omitempty"`
	ConnectorID        uuid.UUID            `json:"connector_id"`
	ExternalProfileURL *string              `json:"external_profile_url,omitempty"`
	LetterSubject      string               `json:"letter_subject,omitempty"`
	LetterBody         string               `json:"letter_body,omitempty"`
	Status             RecommendationStatus `json:"status"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}
