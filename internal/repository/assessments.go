// Package repository provides PostgreSQL data access for the API service.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conformeahq/conformea/internal/service"
	"github.com/conformeahq/conformea/pkg/maturity"
	"github.com/conformeahq/conformea/pkg/models"
)

// AssessmentRepository implements service.AssessmentRepository on pgx.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

// CreateAssessment inserts a new open assessment.
func (r *AssessmentRepository) CreateAssessment(ctx context.Context, params service.CreateAssessmentParams) (*models.Assessment, error) {
	var a models.Assessment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO assessments (org_id, framework, name, description, status, initiated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, org_id, framework, name, description, status, initiated_by, created_at, updated_at
	`, params.OrgID, string(params.Framework), params.Name, params.Description,
		models.AssessmentOpen, params.InitiatedBy,
	).Scan(
		&a.ID, &a.OrgID, &a.Framework, &a.Name, &a.Description,
		&a.Status, &a.InitiatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assessment: %w", err)
	}
	return &a, nil
}

// GetAssessment retrieves an assessment by ID.
func (r *AssessmentRepository) GetAssessment(ctx context.Context, id uuid.UUID) (*models.Assessment, error) {
	var a models.Assessment
	err := r.pool.QueryRow(ctx, `
		SELECT id, org_id, framework, name, description, status, initiated_by, created_at, updated_at
		FROM assessments WHERE id = $1
	`, id).Scan(
		&a.ID, &a.OrgID, &a.Framework, &a.Name, &a.Description,
		&a.Status, &a.InitiatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListAssessments returns the assessments of an organization, newest first.
func (r *AssessmentRepository) ListAssessments(ctx context.Context, params service.ListAssessmentsParams) ([]models.Assessment, error) {
	query := `
		SELECT id, org_id, framework, name, description, status, initiated_by, created_at, updated_at
		FROM assessments
		WHERE org_id = $1
	`
	args := []any{params.OrgID}
	argIdx := 2

	if params.Framework != nil {
		query += fmt.Sprintf(" AND framework = $%d", argIdx)
		args = append(args, string(*params.Framework))
		argIdx++
	}
	if params.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *params.Status)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var result []models.Assessment
	for rows.Next() {
		var a models.Assessment
		if err := rows.Scan(
			&a.ID, &a.OrgID, &a.Framework, &a.Name, &a.Description,
			&a.Status, &a.InitiatedBy, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// UpdateAssessmentStatus moves an assessment to a new status.
func (r *AssessmentRepository) UpdateAssessmentStatus(ctx context.Context, id uuid.UUID, status models.AssessmentStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE assessments SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update assessment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

// SaveResponse upserts one control response of an assessment. The gap list
// is stored newline-joined; Store.Put splits it back on reload.
func (r *AssessmentRepository) SaveResponse(ctx context.Context, assessmentID uuid.UUID, response maturity.Response) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO assessment_responses (
			assessment_id, control_id, current_level, target_level,
			status, evidence, gaps, comment
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (assessment_id, control_id) DO UPDATE SET
			current_level = EXCLUDED.current_level,
			target_level = EXCLUDED.target_level,
			status = EXCLUDED.status,
			evidence = EXCLUDED.evidence,
			gaps = EXCLUDED.gaps,
			comment = EXCLUDED.comment,
			updated_at = now()
	`, assessmentID, response.ControlID, string(response.CurrentLevel), string(response.TargetLevel),
		string(response.Status), response.Evidence, strings.Join(response.Gaps, "\n"), response.Comment,
	)
	if err != nil {
		return fmt.Errorf("upsert response: %w", err)
	}
	return nil
}

// ListResponses returns the stored responses of an assessment.
func (r *AssessmentRepository) ListResponses(ctx context.Context, assessmentID uuid.UUID) ([]maturity.Response, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT control_id, current_level, target_level, status, evidence, gaps, comment
		FROM assessment_responses
		WHERE assessment_id = $1
		ORDER BY control_id
	`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var result []maturity.Response
	for rows.Next() {
		var (
			resp maturity.Response
			gaps string
		)
		if err := rows.Scan(
			&resp.ControlID, &resp.CurrentLevel, &resp.TargetLevel,
			&resp.Status, &resp.Evidence, &gaps, &resp.Comment,
		); err != nil {
			return nil, err
		}
		for _, line := range strings.Split(gaps, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				resp.Gaps = append(resp.Gaps, trimmed)
			}
		}
		result = append(result, resp)
	}
	return result, rows.Err()
}

// DeleteResponses removes every response of an assessment.
func (r *AssessmentRepository) DeleteResponses(ctx context.Context, assessmentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM assessment_responses WHERE assessment_id = $1
	`, assessmentID)
	if err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	return nil
}
