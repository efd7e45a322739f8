package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/introloop/referral-engine/pkg/apperrors"
	"github.com/introloop/referral-engine/pkg/database"
	"github.com/introloop/referral-engine/pkg/models"
)

// LinkRepository is the best-effort audit trail of issued recommendation
// links. Cryptographic validity never depends on these rows; callers treat
// every failure here as non-fatal.
type LinkRepository interface {
	Record(ctx context.Context, link *models.RecommendationLink) error
	MarkUsed(ctx context.Context, tok string) error
	// LookupExpiry returns the stored expiry for a token, which may be
	// shorter than the cryptographic TTL. apperrors.ErrNotFound means no row
	// was recorded and the caller falls back to crypto-only validation.
	LookupExpiry(ctx context.Context, tok string) (time.Time, error)
}

type linkRepository struct {
	db *database.DB
}

// NewLinkRepository creates a new LinkRepository.
func NewLinkRepository(db *database.DB) LinkRepository {
	return &linkRepository{db: db}
}

var _ LinkRepository = (*linkRepository)(nil)

func (r *linkRepository) Record(ctx context.Context, link *models.RecommendationLink) error {
	query := `
		INSERT INTO recommendation_links (token, connector_id, job_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		link.Token, link.ConnectorID, link.JobID, link.IssuedAt, link.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to record link: %w", err)
	}
	return nil
}

func (r *linkRepository) MarkUsed(ctx context.Context, tok string) error {
	query := `UPDATE recommendation_links SET used_at = now() WHERE token = $1 AND used_at IS NULL`

	if _, err := r.db.Exec(ctx, query, tok); err != nil {
		return fmt.Errorf("failed to mark link used: %w", err)
	}
	return nil
}

func (r *linkRepository) LookupExpiry(ctx context.Context, tok string) (time.Time, error) {
	query := `SELECT expires_at FROM recommendation_links WHERE token = $1`

	var expiresAt time.Time
	err := r.db.QueryRow(ctx, query, tok).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, apperrors.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("failed to look up link expiry: %w", err)
	}
	return expiresAt, nil
}
