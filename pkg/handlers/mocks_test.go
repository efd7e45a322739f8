package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/introloop/referral-engine/pkg/apperrors"
	"github.com/introloop/referral-engine/pkg/auth"
	"github.com/introloop/referral-engine/pkg/models"
	"github.com/introloop/referral-engine/pkg/services"
	"github.com/introloop/referral-engine/pkg/token"
)

// Configurable service mocks for handler tests, plus a stub JWT verifier so
// staff routes can be exercised without real keys.

type mockLinkService struct {
	IssueFunc    func(ctx context.Context, connectorID, jobID uuid.UUID) (string, time.Time, error)
	ResolveFunc  func(ctx context.Context, tok string) (*services.ResolvedLink, error)
	VerifyFunc   func(ctx context.Context, tok string) (*token.LinkClaims, error)
	MarkUsedFunc func(ctx context.Context, tok string)
}

func (m *mockLinkService) Issue(ctx context.Context, connectorID, jobID uuid.UUID) (string, time.Time, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, connectorID, jobID)
	}
	return "digest.payload", time.Now().Add(30 * 24 * time.Hour), nil
}

func (m *mockLinkService) Resolve(ctx context.Context, tok string) (*services.ResolvedLink, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, tok)
	}
	return nil, token.ErrInvalid
}

func (m *mockLinkService) Verify(ctx context.Context, tok string) (*token.LinkClaims, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, tok)
	}
	return nil, token.ErrInvalid
}

func (m *mockLinkService) MarkUsed(ctx context.Context, tok string) {
	if m.MarkUsedFunc != nil {
		m.MarkUsedFunc(ctx, tok)
	}
}

type mockRecommendationService struct {
	SubmitFunc       func(ctx context.Context, claims *token.LinkClaims, linkToken string, req *services.SubmitRecommendationsRequest) ([]*models.Recommendation, models.JobStatus, error)
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, status models.RecommendationStatus) (models.JobStatus, error)
}

func (m *mockRecommendationService) Submit(ctx context.Context, claims *token.LinkClaims, linkToken string, req *services.SubmitRecommendationsRequest) ([]*models.Recommendation, models.JobStatus, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, claims, linkToken, req)
	}
	return nil, "", fmt.Errorf("not configured")
}

func (m *mockRecommendationService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RecommendationStatus) (models.JobStatus, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return "", fmt.Errorf("not configured")
}

type mockScoringService struct {
	ScoreJobFunc      func(ctx context.Context, jobID uuid.UUID) (*services.BatchResult, error)
	ValidateMatchFunc func(ctx context.Context, jobID, candidateID uuid.UUID) error
}

func (m *mockScoringService) ScoreJob(ctx context.Context, jobID uuid.UUID) (*services.BatchResult, error) {
	if m.ScoreJobFunc != nil {
		return m.ScoreJobFunc(ctx, jobID)
	}
	return &services.BatchResult{JobID: jobID}, nil
}

func (m *mockScoringService) ValidateMatch(ctx context.Context, jobID, candidateID uuid.UUID) error {
	if m.ValidateMatchFunc != nil {
		return m.ValidateMatchFunc(ctx, jobID, candidateID)
	}
	return nil
}

type mockJobRepository struct {
	CreateFunc       func(ctx context.Context, job *models.Job) error
	GetFunc          func(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, status models.JobStatus) error
}

func (m *mockJobRepository) Create(ctx context.Context, job *models.Job) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, job)
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.Status = models.JobOpenWithoutRecommendations
	return nil
}

func (m *mockJobRepository) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

type mockMatchSummary struct {
	BestForFunc func(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) (float64, bool, error)
}

func (m *mockMatchSummary) BestFor(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) (float64, bool, error) {
	if m.BestForFunc != nil {
		return m.BestForFunc(ctx, jobID, candidateIDs)
	}
	return 0, false, nil
}

type mockEdgeSource struct {
	AllKnownCandidateIDsFunc func(ctx context.Context) ([]uuid.UUID, error)
}

func (m *mockEdgeSource) AllKnownCandidateIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.AllKnownCandidateIDsFunc != nil {
		return m.AllKnownCandidateIDsFunc(ctx)
	}
	return nil, nil
}

// stubVerifier accepts every token and returns fixed staff claims.
type stubVerifier struct{}

func (stubVerifier) ValidateToken(tokenString string) (*auth.Claims, error) {
	return &auth.Claims{Email: "staff@example.com"}, nil
}

func staffMiddleware() *auth.Middleware {
	return auth.NewMiddleware(stubVerifier{}, zap.NewNop())
}
