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

// ConnectorRepository provides data access for connectors and their
// relationship edges. Edges are append-only facts; there is no update path.
type ConnectorRepository interface {
	Create(ctx context.Context, connector *models.Connector) error
	Get(ctx context.Context, id uuid.UUID) (*models.Connector, error)
	AddEdge(ctx context.Context, edge *models.Relationship) error
	// CandidateIDsFor returns the distinct candidates this connector has any
	// relationship edge to - the base set of who they can vouch for.
	CandidateIDsFor(ctx context.Context, connectorID uuid.UUID) ([]uuid.UUID, error)
	// AllKnownCandidateIDs returns the distinct candidates reachable through
	// any relationship edge - the population batch scoring considers.
	AllKnownCandidateIDs(ctx context.Context) ([]uuid.UUID, error)
}

type connectorRepository struct {
	db *database.DB
}

// NewConnectorRepository creates a new ConnectorRepository.
func NewConnectorRepository(db *database.DB) ConnectorRepository {
	return &connectorRepository{db: db}
}

var _ ConnectorRepository = (*connectorRepository)(nil)

func (r *connectorRepository) Create(ctx context.Context, connector *models.Connector) error {
	if connector.ID == uuid.Nil {
		connector.ID = uuid.New()
	}
	connector.CreatedAt = time.Now()

	query := `
		INSERT INTO connectors (id, candidate_id, name, email, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		connector.ID, connector.CandidateID, connector.Name, connector.Email, connector.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create connector: %w", err)
	}
	return nil
}

func (r *connectorRepository) Get(ctx context.Context, id uuid.UUID) (*models.Connector, error) {
	query := `
		SELECT id, candidate_id, name, email, created_at
		FROM connectors WHERE id = $1`

	var c models.Connector
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.CandidateID, &c.Name, &c.Email, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get connector: %w", err)
	}
	return &c, nil
}

func (r *connectorRepository) AddEdge(ctx context.Context, edge *models.Relationship) error {
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	edge.CreatedAt = time.Now()

	query := `
		INSERT INTO relationships (id, connector_id, candidate_id, relationship_type, confidence_score, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		edge.ID, edge.ConnectorID, edge.CandidateID, edge.RelationshipType,
		edge.ConfidenceScore, edge.Source, edge.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add relationship edge: %w", err)
	}
	return nil
}

func (r *connectorRepository) CandidateIDsFor(ctx context.Context, connectorID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT candidate_id FROM relationships WHERE connector_id = $1`
	return r.queryCandidateIDs(ctx, query, connectorID)
}

func (r *connectorRepository) AllKnownCandidateIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT candidate_id FROM relationships`
	return r.queryCandidateIDs(ctx, query)
}

func (r *connectorRepository) queryCandidateIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship candidates: %w", err)
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
		return nil, fmt.Errorf("error iterating relationship candidates: %w", err)
	}

	return ids, nil
}
