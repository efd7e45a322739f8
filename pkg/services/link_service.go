package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/apperrors"
	"github.com/introloop/referral-engine/pkg/models"
	"github.com/introloop/referral-engine/pkg/repositories"
	"github.com/introloop/referral-engine/pkg/token"
)

// ResolvedLink is everything a connector sees when opening a valid link: the
// job, their own connector record, and the candidate list they may act on.
type ResolvedLink struct {
	Job                   *models.Job          `json:"job"`
	Connector             *models.Connector    `json:"connector"`
	EligibleCandidates    []*EligibleCandidate `json:"eligible_candidates"`
	AlreadyRecommendedIDs []uuid.UUID          `json:"already_recommended_candidate_ids"`
}

// LinkService issues and resolves recommendation links. Cryptographic
// validity (the codec) is authoritative; the persisted link record is
// best-effort bookkeeping and its failures are logged, never surfaced.
type LinkService interface {
	// Issue creates a token scoping connectorID to jobID. It succeeds even
	// when the audit row cannot be persisted.
	Issue(ctx context.Context, connectorID, jobID uuid.UUID) (tok string, expiresAt time.Time, err error)
	// Resolve verifies a token and loads what the connector may act on.
	// Every verification failure collapses into token.ErrInvalid.
	Resolve(ctx context.Context, tok string) (*ResolvedLink, error)
	// Verify checks a token without loading any state.
	Verify(ctx context.Context, tok string) (*token.LinkClaims, error)
	// MarkUsed records link usage, best-effort.
	MarkUsed(ctx context.Context, tok string)
}

type linkService struct {
	codec         *token.Codec
	linkRepo      repositories.LinkRepository
	jobRepo       repositories.JobRepository
	connectorRepo repositories.ConnectorRepository
	recRepo       repositories.RecommendationRepository
	eligibility   EligibilityService
	logger        *zap.Logger
}

// NewLinkService creates a new LinkService.
func NewLinkService(
	codec *token.Codec,
	linkRepo repositories.LinkRepository,
	jobRepo repositories.JobRepository,
	connectorRepo repositories.ConnectorRepository,
	recRepo repositories.RecommendationRepository,
	eligibility EligibilityService,
	logger *zap.Logger,
) LinkService {
	return &linkService{
		codec:         codec,
		linkRepo:      linkRepo,
		jobRepo:       jobRepo,
		connectorRepo: connectorRepo,
		recRepo:       recRepo,
		eligibility:   eligibility,
		logger:        logger.Named("links"),
	}
}

var _ LinkService = (*linkService)(nil)

func (s *linkService) Issue(ctx context.Context, connectorID, jobID uuid.UUID) (string, time.Time, error) {
	// The referenced rows must exist; issuing against unknown IDs would just
	// mint tokens that resolve to nothing.
	if _, err := s.connectorRepo.Get(ctx, connectorID); err != nil {
		return "", time.Time{}, fmt.Errorf("connector lookup: %w", err)
	}
	if _, err := s.jobRepo.Get(ctx, jobID); err != nil {
		return "", time.Time{}, fmt.Errorf("job lookup: %w", err)
	}

	tok, issuedAt, err := s.codec.Issue(connectorID, jobID)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := issuedAt.Add(token.TTL)

	// Best-effort audit row. Verification never depends on it, so a failed
	// write must not fail the issue.
	err = s.linkRepo.Record(ctx, &models.RecommendationLink{
		Token:       tok,
		ConnectorID: connectorID,
		JobID:       jobID,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		s.logger.Warn("failed to persist link record, continuing with crypto-only link",
			zap.String("connector_id", connectorID.String()),
			zap.String("job_id", jobID.String()),
			zap.Error(err))
	}

	return tok, expiresAt, nil
}

func (s *linkService) Verify(ctx context.Context, tok string) (*token.LinkClaims, error) {
	claims, err := s.codec.Verify(tok)
	if err != nil {
		// The concrete cause stays in the logs; callers only see ErrInvalid.
		s.logger.Info("link verification failed", zap.Error(err))
		return nil, err
	}

	// A stored expiry may shorten - never extend - the cryptographic window.
	// Absence or lookup failure degrades to crypto-only validation.
	expiresAt, err := s.linkRepo.LookupExpiry(ctx, tok)
	switch {
	case err == nil:
		if time.Now().After(expiresAt) {
			s.logger.Info("link rejected by stored expiry",
				zap.String("connector_id", claims.ConnectorID.String()),
				zap.String("job_id", claims.JobID.String()))
			return nil, token.ErrExpired
		}
	case errors.Is(err, apperrors.ErrNotFound):
	default:
		s.logger.Warn("link expiry lookup failed, falling back to crypto-only validation", zap.Error(err))
	}

	return claims, nil
}

func (s *linkService) Resolve(ctx context.Context, tok string) (*ResolvedLink, error) {
	claims, err := s.Verify(ctx, tok)
	if err != nil {
		return nil, err
	}

	job, err := s.jobRepo.Get(ctx, claims.JobID)
	if err != nil {
		return nil, fmt.Errorf("job lookup: %w", err)
	}
	connector, err := s.connectorRepo.Get(ctx, claims.ConnectorID)
	if err != nil {
		return nil, fmt.Errorf("connector lookup: %w", err)
	}

	eligible, err := s.eligibility.EligibleCandidates(ctx, claims.ConnectorID, claims.JobID, AudienceActionable)
	if err != nil {
		return nil, err
	}

	recommended, err := s.recRepo.CandidateIDsByJobAndConnector(ctx, claims.JobID, claims.ConnectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing recommendations: %w", err)
	}

	return &ResolvedLink{
		Job:                   job,
		Connector:             connector,
		EligibleCandidates:    eligible,
		AlreadyRecommendedIDs: recommended,
	}, nil
}

func (s *linkService) MarkUsed(ctx context.Context, tok string) {
	if err := s.linkRepo.MarkUsed(ctx, tok); err != nil {
		s.logger.Warn("failed to mark link used", zap.Error(err))
	}
}
