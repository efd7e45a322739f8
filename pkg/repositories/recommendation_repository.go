package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/introloop/referral-engine/pkg/apperrors"
	"github.com/introloop/referral-engine/pkg/database"
	"github.com/introloop/referral-engine/pkg/models"
)

// RecommendationRepository provides data access for recommendations.
type RecommendationRepository interface {
	Create(ctx context.Context, rec *models.Recommendation) error
	Get(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RecommendationStatus) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Recommendation, error)
	// CandidateIDsByJobAndConnector returns the non-null candidate IDs this
	// connector has already recommended for the job.
	CandidateIDsByJobAndConnector(ctx context.Context, jobID, connectorID uuid.UUID) ([]uuid.UUID, error)
}

type recommendationRepository struct {
	db *database.DB
}

// NewRecommendationRepository creates a new RecommendationRepository.
func NewRecommendationRepository(db *database.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

var _ RecommendationRepository = (*recommendationRepository)(nil)

func (r *recommendationRepository) Create(ctx context.Context, rec *models.Recommendation) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = models.RecommendationPending
	}

	query := `
		INSERT INTO recommendations (
			id, job_id, candidate_id, connector_id, external_profile_url,
			letter_subject, letter_body, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.JobID, rec.CandidateID, rec.ConnectorID, rec.ExternalProfileURL,
		rec.LetterSubject, rec.LetterBody, rec.Status, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create recommendation: %w", err)
	}
	return nil
}

func (r *recommendationRepository) Get(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	query := selectRecommendation + ` WHERE id = $1`

	rec, err := scanRecommendation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *recommendationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RecommendationStatus) error {
	query := `UPDATE recommendations SET status = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update recommendation status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *recommendationRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Recommendation, error) {
	query := selectRecommendation + ` WHERE job_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	recs := make([]*models.Recommendation, 0)
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}

	return recs, nil
}

func (r *recommendationRepository) CandidateIDsByJobAndConnector(ctx context.Context, jobID, connectorID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT candidate_id FROM recommendations
		WHERE job_id = $1 AND connector_id = $2 AND candidate_id IS NOT NULL`

	rows, err := r.db.Query(ctx, query, jobID, connectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommended candidates: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommended candidates: %w", err)
	}

	return ids, nil
}

const selectRecommendation = `
	SELECT id, job_id, candidate_id, connector_id, external_profile_url,
		letter_subject, letter_body, status, created_at, updated_at
	FROM recommendations`

func scanRecommendation(row pgx.Row) (*models.Recommendation, error) {
	var rec models.Recommendation

	err := row.Scan(
		&rec.ID, &rec.JobID, &rec.CandidateID, &rec.ConnectorID, &rec.ExternalProfileURL,
		&rec.LetterSubject, &rec.LetterBody, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan recommendation: %w", err)
	}

	return &rec, nil
}
