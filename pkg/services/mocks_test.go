package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/introloop/referral-engine/pkg/apperrors"
	"github.com/introloop/referral-engine/pkg/models"
)

// Configurable repository mocks shared by the service tests. Each method
// delegates to a function field when set and falls back to a harmless default
// otherwise, so tests only wire what they assert on.

type mockJobRepo struct {
	CreateFunc       func(ctx context.Context, job *models.Job) error
	GetFunc          func(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, status models.JobStatus) error

	updatedStatuses []models.JobStatus
}

func (m *mockJobRepo) Create(ctx context.Context, job *models.Job) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, job)
	}
	return nil
}

func (m *mockJobRepo) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &models.Job{ID: id, Title: "Backend Engineer", Status: models.JobOpenWithoutRecommendations}, nil
}

func (m *mockJobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error {
	m.updatedStatuses = append(m.updatedStatuses, status)
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

type mockCandidateRepo struct {
	UpsertFunc   func(ctx context.Context, candidate *models.Candidate) error
	GetFunc      func(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	GetByIDsFunc func(ctx context.Context, ids []uuid.UUID) ([]*models.Candidate, error)
}

func (m *mockCandidateRepo) Upsert(ctx context.Context, candidate *models.Candidate) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, candidate)
	}
	return nil
}

func (m *mockCandidateRepo) Get(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &models.Candidate{ID: id}, nil
}

func (m *mockCandidateRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Candidate, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, ids)
	}
	out := make([]*models.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, &models.Candidate{ID: id})
	}
	return out, nil
}

type mockConnectorRepo struct {
	CreateFunc               func(ctx context.Context, connector *models.Connector) error
	GetFunc                  func(ctx context.Context, id uuid.UUID) (*models.Connector, error)
	AddEdgeFunc              func(ctx context.Context, edge *models.Relationship) error
	CandidateIDsForFunc      func(ctx context.Context, connectorID uuid.UUID) ([]uuid.UUID, error)
	AllKnownCandidateIDsFunc func(ctx context.Context) ([]uuid.UUID, error)
}

func (m *mockConnectorRepo) Create(ctx context.Context, connector *models.Connector) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, connector)
	}
	return nil
}

func (m *mockConnectorRepo) Get(ctx context.Context, id uuid.UUID) (*models.Connector, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &models.Connector{ID: id, Name: "Dana"}, nil
}

func (m *mockConnectorRepo) AddEdge(ctx context.Context, edge *models.Relationship) error {
	if m.AddEdgeFunc != nil {
		return m.AddEdgeFunc(ctx, edge)
	}
	return nil
}

func (m *mockConnectorRepo) CandidateIDsFor(ctx context.Context, connectorID uuid.UUID) ([]uuid.UUID, error) {
	if m.CandidateIDsForFunc != nil {
		return m.CandidateIDsForFunc(ctx, connectorID)
	}
	return nil, nil
}

func (m *mockConnectorRepo) AllKnownCandidateIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.AllKnownCandidateIDsFunc != nil {
		return m.AllKnownCandidateIDsFunc(ctx)
	}
	return nil, nil
}

type mockMatchRepo struct {
	UpsertFunc           func(ctx context.Context, match *models.Match) error
	GetFunc              func(ctx context.Context, jobID, candidateID uuid.UUID) (*models.Match, error)
	GetForCandidatesFunc func(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) (map[uuid.UUID]*models.Match, error)
	BestForFunc          func(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) (float64, bool, error)
	MissingPairsFunc     func(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) ([]uuid.UUID, error)
	SetSourceFunc        func(ctx context.Context, jobID, candidateID uuid.UUID, source string) error

	upserted []*models.Match
}

func (m *mockMatchRepo) Upsert(ctx context.Context, match *models.Match) error {
	m.upserted = append(m.upserted, match)
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, match)
	}
	return nil
}

func (m *mockMatchRepo) Get(ctx context.Context, jobID, candidateID uuid.UUID) (*models.Match, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, jobID, candidateID)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockMatchRepo) GetForCandidates(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) (map[uuid.UUID]*models.Match, error) {
	if m.GetForCandidatesFunc != nil {
		return m.GetForCandidatesFunc(ctx, jobID, candidateIDs)
	}
	return map[uuid.UUID]*models.Match{}, nil
}

func (m *mockMatchRepo) BestFor(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) (float64, bool, error) {
	if m.BestForFunc != nil {
		return m.BestForFunc(ctx, jobID, candidateIDs)
	}
	return 0, false, nil
}

func (m *mockMatchRepo) MissingPairs(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) ([]uuid.UUID, error) {
	if m.MissingPairsFunc != nil {
		return m.MissingPairsFunc(ctx, jobID, candidateIDs)
	}
	return candidateIDs, nil
}

func (m *mockMatchRepo) SetSource(ctx context.Context, jobID, candidateID uuid.UUID, source string) error {
	if m.SetSourceFunc != nil {
		return m.SetSourceFunc(ctx, jobID, candidateID, source)
	}
	return nil
}

type mockRecommendationRepo struct {
	CreateFunc                        func(ctx context.Context, rec *models.Recommendation) error
	GetFunc                           func(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
	UpdateStatusFunc                  func(ctx context.Context, id uuid.UUID, status models.RecommendationStatus) error
	ListByJobFunc                     func(ctx context.Context, jobID uuid.UUID) ([]*models.Recommendation, error)
	CandidateIDsByJobAndConnectorFunc func(ctx context.Context, jobID, connectorID uuid.UUID) ([]uuid.UUID, error)

	created []*models.Recommendation
}

func (m *mockRecommendationRepo) Create(ctx context.Context, rec *models.Recommendation) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, rec); err != nil {
			return err
		}
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	m.created = append(m.created, rec)
	return nil
}

func (m *mockRecommendationRepo) Get(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockRecommendationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RecommendationStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockRecommendationRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Recommendation, error) {
	if m.ListByJobFunc != nil {
		return m.ListByJobFunc(ctx, jobID)
	}
	return nil, nil
}

func (m *mockRecommendationRepo) CandidateIDsByJobAndConnector(ctx context.Context, jobID, connectorID uuid.UUID) ([]uuid.UUID, error) {
	if m.CandidateIDsByJobAndConnectorFunc != nil {
		return m.CandidateIDsByJobAndConnectorFunc(ctx, jobID, connectorID)
	}
	return nil, nil
}

type mockLinkRepo struct {
	RecordFunc       func(ctx context.Context, link *models.RecommendationLink) error
	MarkUsedFunc     func(ctx context.Context, tok string) error
	LookupExpiryFunc func(ctx context.Context, tok string) (time.Time, error)

	markedUsed []string
}

func (m *mockLinkRepo) Record(ctx context.Context, link *models.RecommendationLink) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, link)
	}
	return nil
}

func (m *mockLinkRepo) MarkUsed(ctx context.Context, tok string) error {
	m.markedUsed = append(m.markedUsed, tok)
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, tok)
	}
	return nil
}

func (m *mockLinkRepo) LookupExpiry(ctx context.Context, tok string) (time.Time, error) {
	if m.LookupExpiryFunc != nil {
		return m.LookupExpiryFunc(ctx, tok)
	}
	return time.Time{}, apperrors.ErrNotFound
}
