package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/models"
	"github.com/introloop/referral-engine/pkg/repositories"
)

// Audience selects the match-score visibility threshold. The broad view
// ("potential candidates") surfaces weaker matches than the actionable list a
// connector recommends from.
type Audience int

const (
	AudienceBroad Audience = iota
	AudienceActionable
)

// EligibleCandidate is one candidate a connector may recommend, with the
// match data the UI displays alongside.
type EligibleCandidate struct {
	Candidate          *models.Candidate     `json:"candidate"`
	Score              float64               `json:"score"`
	Breakdown          models.MatchBreakdown `json:"breakdown"`
	Source             string                `json:"source"`
	AlreadyRecommended bool                  `json:"already_recommended"`
}

// EligibilityThresholds are the minimum match scores per audience.
type EligibilityThresholds struct {
	Broad      float64
	Actionable float64
}

// EligibilityService computes the candidate set a connector is allowed to
// recommend for a job right now.
type EligibilityService interface {
	EligibleCandidates(ctx context.Context, connectorID, jobID uuid.UUID, audience Audience) ([]*EligibleCandidate, error)
}

type eligibilityService struct {
	connectorRepo repositories.ConnectorRepository
	candidateRepo repositories.CandidateRepository
	matchRepo     repositories.MatchRepository
	recRepo       repositories.RecommendationRepository
	thresholds    EligibilityThresholds
	logger        *zap.Logger
}

// NewEligibilityService creates a new EligibilityService.
func NewEligibilityService(
	connectorRepo repositories.ConnectorRepository,
	candidateRepo repositories.CandidateRepository,
	matchRepo repositories.MatchRepository,
	recRepo repositories.RecommendationRepository,
	thresholds EligibilityThresholds,
	logger *zap.Logger,
) EligibilityService {
	return &eligibilityService{
		connectorRepo: connectorRepo,
		candidateRepo: candidateRepo,
		matchRepo:     matchRepo,
		recRepo:       recRepo,
		thresholds:    thresholds,
		logger:        logger.Named("eligibility"),
	}
}

var _ EligibilityService = (*eligibilityService)(nil)

// EligibleCandidates walks the connector's relationship edges, keeps the
// candidates whose match for the job clears the audience threshold and is not
// a low-confidence automatic score, and flags - without removing - the ones
// this connector already recommended, so their submission history stays
// visible.
func (s *eligibilityService) EligibleCandidates(ctx context.Context, connectorID, jobID uuid.UUID, audience Audience) ([]*EligibleCandidate, error) {
	known, err := s.connectorRepo.CandidateIDsFor(ctx, connectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationship edges: %w", err)
	}
	if len(known) == 0 {
		return []*EligibleCandidate{}, nil
	}

	matches, err := s.matchRepo.GetForCandidates(ctx, jobID, known)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	threshold := s.thresholds.Broad
	if audience == AudienceActionable {
		threshold = s.thresholds.Actionable
	}

	visible := make([]uuid.UUID, 0, len(matches))
	for id, m := range matches {
		if m.Score <= threshold {
			continue
		}
		if m.Source == models.MatchSourceAutoLow {
			continue
		}
		visible = append(visible, id)
	}
	if len(visible) == 0 {
		s.logger.Debug("no candidates above threshold",
			zap.String("connector_id", connectorID.String()),
			zap.String("job_id", jobID.String()),
			zap.Int("known", len(known)),
			zap.Float64("threshold", threshold))
		return []*EligibleCandidate{}, nil
	}

	candidates, err := s.candidateRepo.GetByIDs(ctx, visible)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	recommended, err := s.recRepo.CandidateIDsByJobAndConnector(ctx, jobID, connectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing recommendations: %w", err)
	}
	recommendedSet := make(map[uuid.UUID]bool, len(recommended))
	for _, id := range recommended {
		recommendedSet[id] = true
	}

	result := make([]*EligibleCandidate, 0, len(candidates))
	for _, c := range candidates {
		m := matches[c.ID]
		result = append(result, &EligibleCandidate{
			Candidate:          c,
			Score:              m.Score,
			Breakdown:          m.Breakdown,
			Source:             m.Source,
			AlreadyRecommended: recommendedSet[c.ID],
		})
	}

	s.logger.Debug("resolved eligible candidates",
		zap.String("connector_id", connectorID.String()),
		zap.String("job_id", jobID.String()),
		zap.Int("known", len(known)),
		zap.Int("eligible", len(result)))

	return result, nil
}
