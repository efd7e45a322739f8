package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a job, derived from the aggregate of its
// recommendations. Only job creation and the status recompute mutate it.
type JobStatus string

const (
	JobOpenWithoutRecommendations JobStatus = "open_without_recommendations"
	JobOpenWithRecommendations    JobStatus = "open_with_recommendations"
	JobRecruitmentProcess         JobStatus = "recruitment_process"
	JobAllRecommendationsRejected JobStatus = "all_recommendations_rejected"
	JobHired                      JobStatus = "hired" // terminal
)

// Job represents an open position a candidate wants filled on their behalf.
type Job struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	CandidateID uuid.UUID `json:"candidate_id"` // owning candidate
	Description string    `json:"description"`
	Status      JobStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
