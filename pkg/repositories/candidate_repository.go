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

// CandidateRepository provides data access for candidates. Create is an
// upsert: candidates come into existence on first sight (profile import,
// registration, or being referenced) and later sightings only update profile
// fields.
type CandidateRepository interface {
	Upsert(ctx context.Context, candidate *models.Candidate) error
	Get(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Candidate, error)
}

type candidateRepository struct {
	db *database.DB
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(db *database.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

var _ CandidateRepository = (*candidateRepository)(nil)

func (r *candidateRepository) Upsert(ctx context.Context, candidate *models.Candidate) error {
	if candidate.ID == uuid.Nil {
		candidate.ID = uuid.New()
	}
	now := time.Now()
	candidate.UpdatedAt = now
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = now
	}

	query := `
		INSERT INTO candidates (id, name, current_employer, current_title, email, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			current_employer = EXCLUDED.current_employer,
			current_title = EXCLUDED.current_title,
			email = EXCLUDED.email,
			location = EXCLUDED.location,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		candidate.ID, candidate.Name, candidate.CurrentEmployer, candidate.CurrentTitle,
		candidate.Email, candidate.Location, candidate.CreatedAt, candidate.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert candidate: %w", err)
	}
	return nil
}

func (r *candidateRepository) Get(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	query := selectCandidate + ` WHERE id = $1`

	c, err := scanCandidate(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *candidateRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := selectCandidate + ` WHERE id = ANY($1) ORDER BY name`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]*models.Candidate, 0, len(ids))
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}

	return candidates, nil
}

const selectCandidate = `
	SELECT id, name, current_employer, current_title, email, location, created_at, updated_at
	FROM candidates`

func scanCandidate(row pgx.Row) (*models.Candidate, error) {
	var c models.Candidate

	err := row.Scan(
		&c.ID, &c.Name, &c.CurrentEmployer, &c.CurrentTitle,
		&c.Email, &c.Location, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan candidate: %w", err)
	}

	return &c, nil
}
