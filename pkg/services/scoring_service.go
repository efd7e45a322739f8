package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/models"
	"github.com/introloop/referral-engine/pkg/repositories"
	"github.com/introloop/referral-engine/pkg/retry"
	"github.com/introloop/referral-engine/pkg/scoring"
)

// lowConfidenceCutoff separates confident automatic scores from ones that
// should never surface on an actionable list.
const lowConfidenceCutoff = 0.5

// BatchResult summarizes one batch-scoring run for a job.
type BatchResult struct {
	JobID    uuid.UUID `json:"job_id"`
	Eligible int       `json:"eligible"` // candidates with any relationship edge
	Skipped  int       `json:"skipped"`  // already scored, not recomputed
	Scored   int       `json:"scored"`
	Failed   int       `json:"failed"`
}

// ScoringService runs the batch-scoring control loop: find the unscored
// (job, candidate) pairs, score them with bounded concurrency and cache the
// results. One failed pair never aborts the batch.
type ScoringService interface {
	ScoreJob(ctx context.Context, jobID uuid.UUID) (*BatchResult, error)
	// ValidateMatch marks an existing match as externally validated.
	ValidateMatch(ctx context.Context, jobID, candidateID uuid.UUID) error
}

type scoringService struct {
	scorer        scoring.Scorer
	pool          *scoring.WorkerPool
	jobRepo       repositories.JobRepository
	candidateRepo repositories.CandidateRepository
	matchRepo     repositories.MatchRepository
	edges         RelationshipCandidateSource
	callTimeout   time.Duration
	logger        *zap.Logger
}

// RelationshipCandidateSource yields every candidate reachable through any
// connector's relationship edges - the population worth scoring for a job.
type RelationshipCandidateSource interface {
	AllKnownCandidateIDs(ctx context.Context) ([]uuid.UUID, error)
}

// NewScoringService creates a new ScoringService. scorer may be nil, in
// which case ScoreJob reports that scoring is disabled.
func NewScoringService(
	scorer scoring.Scorer,
	pool *scoring.WorkerPool,
	jobRepo repositories.JobRepository,
	candidateRepo repositories.CandidateRepository,
	matchRepo repositories.MatchRepository,
	edges RelationshipCandidateSource,
	callTimeout time.Duration,
	logger *zap.Logger,
) ScoringService {
	if callTimeout <= 0 {
		callTimeout = time.Minute
	}
	return &scoringService{
		scorer:        scorer,
		pool:          pool,
		jobRepo:       jobRepo,
		candidateRepo: candidateRepo,
		matchRepo:     matchRepo,
		edges:         edges,
		callTimeout:   callTimeout,
		logger:        logger.Named("scoring"),
	}
}

var _ ScoringService = (*scoringService)(nil)

func (s *scoringService) ScoreJob(ctx context.Context, jobID uuid.UUID) (*BatchResult, error) {
	if s.scorer == nil {
		return nil, fmt.Errorf("scoring is disabled: no provider configured")
	}

	job, err := s.jobRepo.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	known, err := s.edges.AllKnownCandidateIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate population: %w", err)
	}

	missing, err := s.matchRepo.MissingPairs(ctx, jobID, known)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		JobID:    jobID,
		Eligible: len(known),
		Skipped:  len(known) - len(missing),
	}
	if len(missing) == 0 {
		return result, nil
	}

	candidates, err := s.candidateRepo.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	tasks := make([]scoring.Task[*scoring.Result], 0, len(candidates))
	for _, candidate := range candidates {
		c := candidate
		tasks = append(tasks, scoring.Task[*scoring.Result]{
			ID: c.ID.String(),
			Run: func(ctx context.Context) (*scoring.Result, error) {
				return s.scorePair(ctx, job, c)
			},
		})
	}

	for _, r := range scoring.Run(ctx, s.pool, tasks) {
		if r.Err != nil {
			// Skippable per pair: log and move on.
			s.logger.Warn("scoring failed for candidate",
				zap.String("job_id", jobID.String()),
				zap.String("candidate_id", r.ID),
				zap.Error(r.Err))
			result.Failed++
			continue
		}

		candidateID, err := uuid.Parse(r.ID)
		if err != nil {
			result.Failed++
			continue
		}

		source := models.MatchSourceAuto
		if r.Result.Confidence < lowConfidenceCutoff {
			source = models.MatchSourceAutoLow
		}

		err = s.matchRepo.Upsert(ctx, &models.Match{
			JobID:       jobID,
			CandidateID: candidateID,
			Score:       r.Result.Score,
			Breakdown:   r.Result.Breakdown,
			Source:      source,
		})
		if err != nil {
			s.logger.Error("failed to cache match",
				zap.String("job_id", jobID.String()),
				zap.String("candidate_id", r.ID),
				zap.Error(err))
			result.Failed++
			continue
		}
		result.Scored++
	}

	s.logger.Info("batch scoring finished",
		zap.String("job_id", jobID.String()),
		zap.Int("scored", result.Scored),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	return result, nil
}

// scorePair runs one scoring call with a timeout and a short retry. The
// scorer is the only long-latency dependency in the engine.
func (s *scoringService) scorePair(ctx context.Context, job *models.Job, candidate *models.Candidate) (*scoring.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	return retry.DoWithResult(callCtx, &retry.Config{
		MaxRetries:   2,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}, func() (*scoring.Result, error) {
		return s.scorer.Score(callCtx, job, candidate)
	})
}

func (s *scoringService) ValidateMatch(ctx context.Context, jobID, candidateID uuid.UUID) error {
	if err := s.matchRepo.SetSource(ctx, jobID, candidateID, models.MatchSourceValidated); err != nil {
		return err
	}

	s.logger.Info("match validated",
		zap.String("job_id", jobID.String()),
		zap.String("candidate_id", candidateID.String()))
	return nil
}
