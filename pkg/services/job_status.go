package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/models"
	"github.com/introloop/referral-engine/pkg/repositories"
)

// ComputeJobStatus derives a job's lifecycle status from the current set of
// its recommendation statuses. It is pure and idempotent: recomputing on the
// same set always yields the same status, so a missed or duplicated recompute
// self-heals on the next trigger.
//
// Rule order matters: a single contracted recommendation wins over everything
// else, which is what keeps a hired job hired even if other recommendations
// are rejected afterwards.
func ComputeJobStatus(statuses []models.RecommendationStatus) models.JobStatus {
	if len(statuses) == 0 {
		return models.JobOpenWithoutRecommendations
	}

	allRejected := true
	anyInReview := false
	for _, s := range statuses {
		switch s {
		case models.RecommendationContracted:
			return models.JobHired
		case models.RecommendationInReview:
			anyInReview = true
			allRejected = false
		case models.RecommendationRejected:
		default:
			allRejected = false
		}
	}

	if allRejected {
		return models.JobAllRecommendationsRejected
	}
	if anyInReview {
		return models.JobRecruitmentProcess
	}
	return models.JobOpenWithRecommendations
}

// JobStatusService recomputes and persists job status after recommendation
// changes. The job's status field is owned by a single writer per job ID:
// concurrent recommendation updates on the same job serialize on a keyed
// lock so a stale recompute cannot overwrite a newer one.
type JobStatusService interface {
	Recompute(ctx context.Context, jobID uuid.UUID) (models.JobStatus, error)
}

type jobStatusService struct {
	jobRepo repositories.JobRepository
	recRepo repositories.RecommendationRepository
	logger  *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*jobLock
}

// jobLock is a reference-counted per-job mutex. The count lets the map entry
// be evicted when the last holder releases, so the lock table stays bounded
// by concurrent recomputes rather than by every job ever touched.
type jobLock struct {
	mu   sync.Mutex
	refs int
}

// NewJobStatusService creates a new JobStatusService.
func NewJobStatusService(
	jobRepo repositories.JobRepository,
	recRepo repositories.RecommendationRepository,
	logger *zap.Logger,
) JobStatusService {
	return &jobStatusService{
		jobRepo: jobRepo,
		recRepo: recRepo,
		logger:  logger.Named("job-status"),
		locks:   make(map[uuid.UUID]*jobLock),
	}
}

var _ JobStatusService = (*jobStatusService)(nil)

// Recompute reads the job's current recommendation set, derives the status
// and writes it back. The read-then-write runs under the job's lock.
func (s *jobStatusService) Recompute(ctx context.Context, jobID uuid.UUID) (models.JobStatus, error) {
	lock := s.acquire(jobID)
	lock.mu.Lock()
	defer func() {
		lock.mu.Unlock()
		s.release(jobID, lock)
	}()

	recs, err := s.recRepo.ListByJob(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("failed to load recommendations for recompute: %w", err)
	}

	statuses := make([]models.RecommendationStatus, len(recs))
	for i, rec := range recs {
		statuses[i] = rec.Status
	}

	status := ComputeJobStatus(statuses)
	if err := s.jobRepo.UpdateStatus(ctx, jobID, status); err != nil {
		return "", fmt.Errorf("failed to persist job status: %w", err)
	}

	s.logger.Debug("recomputed job status",
		zap.String("job_id", jobID.String()),
		zap.String("status", string(status)),
		zap.Int("recommendations", len(recs)))

	return status, nil
}

func (s *jobStatusService) acquire(jobID uuid.UUID) *jobLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[jobID]
	if !ok {
		lock = &jobLock{}
		s.locks[jobID] = lock
	}
	lock.refs++
	return lock
}

func (s *jobStatusService) release(jobID uuid.UUID, lock *jobLock) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, jobID)
	}
}
