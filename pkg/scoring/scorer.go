// Package scoring provides the external compatibility scorer that produces
// match assessments between a job and a candidate. The engine treats scoring
// as an opaque call: providers are interchangeable behind the Scorer
// interface and every result is cached in the match store by the caller.
package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/introloop/referral-engine/pkg/models"
)

// Result is one scoring outcome. Confidence drives the source tag the caller
// stores: low-confidence automatic scores never surface on actionable lists.
type Result struct {
	Score      float64               // 0-100
	Confidence float64               // 0-1
	Breakdown  models.MatchBreakdown // four weighted parts, weights sum to 1.0
}

// Scorer computes the compatibility of one candidate for one job.
type Scorer interface {
	Score(ctx context.Context, job *models.Job, candidate *models.Candidate) (*Result, error)
	Name() string
}

const systemPrompt = `You are a recruiting analyst. Assess how well a candidate fits a job and respond with ONLY a JSON object, no prose, of this exact shape:
{
  "score": <0-100 overall fit>,
  "confidence": <0-1, how confident you are given the available data>,
  "breakdown": {
    "role_fit":    {"score": <0-100>, "weight": 0.4,  "rationale": "<one sentence>"},
    "stability":   {"score": <0-100>, "weight": 0.2,  "rationale": "<one sentence>"},
    "trajectory":  {"score": <0-100>, "weight": 0.2,  "rationale": "<one sentence>"},
    "hard_skills": {"score": <0-100>, "weight": 0.2,  "rationale": "<one sentence>"}
  }
}
The four weights must sum to 1.0.`

// buildPrompt renders the job and candidate into the user prompt both
// providers send.
func buildPrompt(job *models.Job, candidate *models.Candidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Job: %s\n", job.Title)
	if job.Description != "" {
		fmt.Fprintf(&b, "Description:\n%s\n", job.Description)
	}

	fmt.Fprintf(&b, "\nCandidate: %s\n", candidate.Name)
	if candidate.CurrentTitle != "" {
		fmt.Fprintf(&b, "Current title: %s\n", candidate.CurrentTitle)
	}
	if candidate.CurrentEmployer != "" {
		fmt.Fprintf(&b, "Current employer: %s\n", candidate.CurrentEmployer)
	}
	if candidate.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", candidate.Location)
	}

	b.WriteString("\nAssess the fit and answer with the JSON object only.")
	return b.String()
}
