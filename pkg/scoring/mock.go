package scoring

import (
	"context"
	"sync/atomic"

	"github.com/introloop/referral-engine/pkg/models"
)

// MockScorer is a configurable scorer for tests. Set ScoreFunc to control
// behavior; the zero value returns an empty Result. Safe for concurrent use
// so batch-scoring tests can run it through the worker pool.
type MockScorer struct {
	ScoreFunc func(ctx context.Context, job *models.Job, candidate *models.Candidate) (*Result, error)

	calls atomic.Int64
}

var _ Scorer = (*MockScorer)(nil)

func (m *MockScorer) Name() string { return "mock" }

// Calls reports how many times Score was invoked.
func (m *MockScorer) Calls() int {
	return int(m.calls.Load())
}

func (m *MockScorer) Score(ctx context.Context, job *models.Job, candidate *models.Candidate) (*Result, error) {
	m.calls.Add(1)
	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, job, candidate)
	}
	return &Result{}, nil
}
