package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchSource tags how a match score was produced. Low-confidence automatic
// scores never surface on a connector's actionable list.
const (
	MatchSourceValidated = "validated" // externally validated by staff
	MatchSourceAuto      = "auto"      // automatic, confident
	MatchSourceAutoLow   = "auto_low"  // automatic, low confidence
)

// ScorePart is one weighted component of a match breakdown.
type ScorePart struct {
	Score     float64 `json:"score"`  // 0-100
	Weight    float64 `json:"weight"` // parts sum to 1.0 (producer contract)
	Rationale string  `json:"rationale"`
}

// MatchBreakdown is the four-part decomposition of a compatibility score.
type MatchBreakdown struct {
	RoleFit    ScorePart `json:"role_fit"`
	Stability  ScorePart `json:"stability"`
	Trajectory ScorePart `json:"trajectory"`
	HardSkills ScorePart `json:"hard_skills"`
}

// Match caches one externally computed compatibility assessment between a job
// and a candidate. At most one row exists per (job_id, candidate_id); a second
// computation replaces the first.
type Match struct {
	JobID       uuid.UUID      `json:"job_id"`
	CandidateID uuid.UUID      `json:"candidate_id"`
	Score       float64        `json:"score"` // 0-100
	Breakdown   MatchBreakdown `json:"breakdown"`
	Source      string         `json:"source"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
