package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conformeahq/conformea/internal/service"
	"github.com/conformeahq/conformea/pkg/models"
)

// EvidenceRepository implements service.EvidenceRepository on pgx.
type EvidenceRepository struct {
	pool *pgxpool.Pool
}

// NewEvidenceRepository creates a new EvidenceRepository.
func NewEvidenceRepository(pool *pgxpool.Pool) *EvidenceRepository {
	return &EvidenceRepository{pool: pool}
}

const evidenceColumns = `
	id, org_id, action_plan_id, title, description, submitted_by,
	submitted_at, department, status, validated_by, validated_at,
	rssi_remarks, evidence_type, created_at, updated_at
`

func scanEvidence(row pgx.Row) (*models.Evidence, error) {
	var ev models.Evidence
	err := row.Scan(
		&ev.ID, &ev.OrgID, &ev.ActionPlanID, &ev.Title, &ev.Description, &ev.SubmittedBy,
		&ev.SubmittedAt, &ev.Department, &ev.Status, &ev.ValidatedBy, &ev.ValidatedAt,
		&ev.RSSIRemarks, &ev.EvidenceType, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// CreateEvidence inserts a new evidence record.
func (r *EvidenceRepository) CreateEvidence(ctx context.Context, ev models.Evidence) (*models.Evidence, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO evidence (
			id, org_id, action_plan_id, title, description, submitted_by,
			submitted_at, department, status, evidence_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+evidenceColumns,
		ev.ID, ev.OrgID, ev.ActionPlanID, ev.Title, ev.Description, ev.SubmittedBy,
		ev.SubmittedAt, ev.Department, ev.Status, ev.EvidenceType,
	)
	created, err := scanEvidence(row)
	if err != nil {
		return nil, fmt.Errorf("insert evidence: %w", err)
	}
	return created, nil
}

// GetEvidence retrieves an evidence record by ID.
func (r *EvidenceRepository) GetEvidence(ctx context.Context, id uuid.UUID) (*models.Evidence, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+evidenceColumns+` FROM evidence WHERE id = $1`, id)
	return scanEvidence(row)
}

// ListEvidenceByPlan returns the evidence attached to an action plan,
// oldest first.
func (r *EvidenceRepository) ListEvidenceByPlan(ctx context.Context, planID uuid.UUID) ([]models.Evidence, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+evidenceColumns+` FROM evidence
		WHERE action_plan_id = $1
		ORDER BY submitted_at ASC
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	var result []models.Evidence
	for rows.Next() {
		ev, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ev)
	}
	return result, rows.Err()
}

// UpdateEvidence replaces the mutable fields of an evidence record.
func (r *EvidenceRepository) UpdateEvidence(ctx context.Context, ev models.Evidence) (*models.Evidence, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE evidence SET
			status = $2, validated_by = $3, validated_at = $4,
			rssi_remarks = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+evidenceColumns,
		ev.ID, ev.Status, ev.ValidatedBy, ev.ValidatedAt, ev.RSSIRemarks,
	)
	return scanEvidence(row)
}
