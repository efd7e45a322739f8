package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/apperrors"
	"github.com/introloop/referral-engine/pkg/models"
	"github.com/introloop/referral-engine/pkg/repositories"
	"github.com/introloop/referral-engine/pkg/token"
)

// SubmitRecommendationsRequest is a connector's submission through a link:
// one or more known candidates and/or one out-of-network profile URL, with
// optional letter text applied to each created recommendation.
type SubmitRecommendationsRequest struct {
	CandidateIDs       []uuid.UUID
	ExternalProfileURL string
	LetterSubject      string
	LetterBody         string
}

// RecommendationService creates recommendations and applies staff status
// updates, recomputing the owning job's status after every mutation.
type RecommendationService interface {
	// Submit creates one recommendation per target. Failing to create a row
	// is fatal; failing to mark the link used is not.
	Submit(ctx context.Context, claims *token.LinkClaims, linkToken string, req *SubmitRecommendationsRequest) ([]*models.Recommendation, models.JobStatus, error)
	// UpdateStatus sets a recommendation's status and recomputes the job.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RecommendationStatus) (models.JobStatus, error)
}

type recommendationService struct {
	recRepo   repositories.RecommendationRepository
	jobStatus JobStatusService
	links     LinkService
	logger    *zap.Logger
}

// NewRecommendationService creates a new RecommendationService.
func NewRecommendationService(
	recRepo repositories.RecommendationRepository,
	jobStatus JobStatusService,
	links LinkService,
	logger *zap.Logger,
) RecommendationService {
	return &recommendationService{
		recRepo:   recRepo,
		jobStatus: jobStatus,
		links:     links,
		logger:    logger.Named("recommendations"),
	}
}

var _ RecommendationService = (*recommendationService)(nil)

func (s *recommendationService) Submit(ctx context.Context, claims *token.LinkClaims, linkToken string, req *SubmitRecommendationsRequest) ([]*models.Recommendation, models.JobStatus, error) {
	if len(req.CandidateIDs) == 0 && req.ExternalProfileURL == "" {
		return nil, "", apperrors.ErrEmptySubmission
	}

	created := make([]*models.Recommendation, 0, len(req.CandidateIDs)+1)
	for _, candidateID := range req.CandidateIDs {
		id := candidateID
		rec := &models.Recommendation{
			JobID:         claims.JobID,
			CandidateID:   &id,
			ConnectorID:   claims.ConnectorID,
			LetterSubject: req.LetterSubject,
			LetterBody:    req.LetterBody,
			Status:        models.RecommendationPending,
		}
		if err := s.recRepo.Create(ctx, rec); err != nil {
			return nil, "", fmt.Errorf("failed to create recommendation: %w", err)
		}
		created = append(created, rec)
	}

	if req.ExternalProfileURL != "" {
		url := req.ExternalProfileURL
		rec := &models.Recommendation{
			JobID:              claims.JobID,
			ConnectorID:        claims.ConnectorID,
			ExternalProfileURL: &url,
			LetterSubject:      req.LetterSubject,
			LetterBody:         req.LetterBody,
			Status:             models.RecommendationPending,
		}
		if err := s.recRepo.Create(ctx, rec); err != nil {
			return nil, "", fmt.Errorf("failed to create recommendation: %w", err)
		}
		created = append(created, rec)
	}

	status, err := s.jobStatus.Recompute(ctx, claims.JobID)
	if err != nil {
		return nil, "", err
	}

	// Informational only; the recommendations already exist.
	s.links.MarkUsed(ctx, linkToken)

	s.logger.Info("recommendations submitted",
		zap.String("job_id", claims.JobID.String()),
		zap.String("connector_id", claims.ConnectorID.String()),
		zap.Int("count", len(created)),
		zap.String("job_status", string(status)))

	return created, status, nil
}

func (s *recommendationService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RecommendationStatus) (models.JobStatus, error) {
	if !models.IsValidRecommendationStatus(status) {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, status)
	}

	rec, err := s.recRepo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.recRepo.UpdateStatus(ctx, id, status); err != nil {
		return "", err
	}

	jobStatus, err := s.jobStatus.Recompute(ctx, rec.JobID)
	if err != nil {
		return "", err
	}

	s.logger.Info("recommendation status updated",
		zap.String("recommendation_id", id.String()),
		zap.String("status", string(status)),
		zap.String("job_status", string(jobStatus)))

	return jobStatus, nil
}
