package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/introloop/referral-engine/pkg/apperrors"
	"github.com/introloop/referral-engine/pkg/database"
	"github.com/introloop/referral-engine/pkg/models"
)

// MatchRepository is the idempotent cache of compatibility assessments between
// one job and one candidate.
type MatchRepository interface {
	// Upsert writes the assessment for (jobID, candidateID), replacing any
	// previous row for the pair. Last-writer-wins under concurrency.
	Upsert(ctx context.Context, match *models.Match) error
	Get(ctx context.Context, jobID, candidateID uuid.UUID) (*models.Match, error)
	// GetForCandidates returns the matches for jobID restricted to the given
	// candidate set, keyed by candidate ID.
	GetForCandidates(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) (map[uuid.UUID]*models.Match, error)
	// BestFor returns the max score among the given candidates for jobID.
	// ok is false when none of them have been scored.
	BestFor(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) (score float64, ok bool, err error)
	// MissingPairs returns the subset of candidateIDs not yet scored for jobID.
	MissingPairs(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) ([]uuid.UUID, error)
	// SetSource updates the source tag of an existing match (e.g. when staff
	// validate an automatic score).
	SetSource(ctx context.Context, jobID, candidateID uuid.UUID, source string) error
}

type matchRepository struct {
	db *database.DB
}

// NewMatchRepository creates a new MatchRepository.
func NewMatchRepository(db *database.DB) MatchRepository {
	return &matchRepository{db: db}
}

var _ MatchRepository = (*matchRepository)(nil)

func (r *matchRepository) Upsert(ctx context.Context, match *models.Match) error {
	match.UpdatedAt = time.Now()

	breakdown, err := json.Marshal(match.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}

	query := `
		INSERT INTO matches (job_id, candidate_id, score, breakdown, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (job_id, candidate_id)
		DO UPDATE SET
			score = EXCLUDED.score,
			breakdown = EXCLUDED.breakdown,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.Exec(ctx, query,
		match.JobID, match.CandidateID, match.Score, breakdown, match.Source, match.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert match: %w", err)
	}

	return nil
}

func (r *matchRepository) Get(ctx context.Context, jobID, candidateID uuid.UUID) (*models.Match, error) {
	query := `
		SELECT job_id, candidate_id, score, breakdown, source, updated_at
		FROM matches
		WHERE job_id = $1 AND candidate_id = $2`

	m, err := scanMatch(r.db.QueryRow(ctx, query, jobID, candidateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *matchRepository) GetForCandidates(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) (map[uuid.UUID]*models.Match, error) {
	if len(candidateIDs) == 0 {
		return map[uuid.UUID]*models.Match{}, nil
	}

	query := `
		SELECT job_id, candidate_id, score, breakdown, source, updated_at
		FROM matches
		WHERE job_id = $1 AND candidate_id = ANY($2)`

	rows, err := r.db.Query(ctx, query, jobID, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	defer rows.Close()

	matches := make(map[uuid.UUID]*models.Match)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches[m.CandidateID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return matches, nil
}

func (r *matchRepository) BestFor(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) (float64, bool, error) {
	if len(candidateIDs) == 0 {
		return 0, false, nil
	}

	query := `SELECT MAX(score) FROM matches WHERE job_id = $1 AND candidate_id = ANY($2)`

	var best *float64
	if err := r.db.QueryRow(ctx, query, jobID, candidateIDs).Scan(&best); err != nil {
		return 0, false, fmt.Errorf("failed to get best score: %w", err)
	}
	if best == nil {
		return 0, false, nil
	}
	return *best, true, nil
}

func (r *matchRepository) MissingPairs(ctx context.Context, jobID uuid.UUID, candidateIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT c.id
		FROM unnest($2::uuid[]) AS c(id)
		WHERE NOT EXISTS (
			SELECT 1 FROM matches m WHERE m.job_id = $1 AND m.candidate_id = c.id
		)`

	rows, err := r.db.Query(ctx, query, jobID, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get missing pairs: %w", err)
	}
	defer rows.Close()

	missing := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate id: %w", err)
		}
		missing = append(missing, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missing pairs: %w", err)
	}

	return missing, nil
}

func (r *matchRepository) SetSource(ctx context.Context, jobID, candidateID uuid.UUID, source string) error {
	query := `UPDATE matches SET source = $3, updated_at = now() WHERE job_id = $1 AND candidate_id = $2`

	result, err := r.db.Exec(ctx, query, jobID, candidateID, source)
	if err != nil {
		return fmt.Errorf("failed to set match source: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	var breakdown []byte

	err := row.Scan(&m.JobID, &m.CandidateID, &m.Score, &breakdown, &m.Source, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}

	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &m.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
		}
	}

	return &m, nil
}
