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

// PlanRepository implements service.PlanRepository on pgx.
type PlanRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

const planColumns = `
	id, org_id, title, description, framework, control_id,
	priority, status, assignee, due_date, estimated_effort,
	completion_percentage, dependencies, business_impact,
	created_at, updated_at
`

func scanPlan(row pgx.Row) (*models.ActionPlan, error) {
	var p models.ActionPlan
	err := row.Scan(
		&p.ID, &p.OrgID, &p.Title, &p.Description, &p.Framework, &p.ControlID,
		&p.Priority, &p.Status, &p.Assignee, &p.DueDate, &p.EstimatedEffort,
		&p.CompletionPercentage, &p.Dependencies, &p.BusinessImpact,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreatePlan inserts a new action plan.
func (r *PlanRepository) CreatePlan(ctx context.Context, plan models.ActionPlan) (*models.ActionPlan, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO action_plans (
			id, org_id, title, description, framework, control_id,
			priority, status, assignee, due_date, estimated_effort,
			completion_percentage, dependencies, business_impact
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+planColumns,
		plan.ID, plan.OrgID, plan.Title, plan.Description, plan.Framework, plan.ControlID,
		plan.Priority, plan.Status, plan.Assignee, plan.DueDate, plan.EstimatedEffort,
		plan.CompletionPercentage, plan.Dependencies, plan.BusinessImpact,
	)
	created, err := scanPlan(row)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	return created, nil
}

// UpsertPlans inserts or refreshes a batch of generated plans. Existing
// rows keep their status and progress: regeneration must not clobber work
// already underway.
func (r *PlanRepository) UpsertPlans(ctx context.Context, plans []models.ActionPlan) error {
	if len(plans) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, plan := range plans {
		_, err := tx.Exec(ctx, `
			INSERT INTO action_plans (
				id, org_id, title, description, framework, control_id,
				priority, status, assignee, due_date, estimated_effort,
				completion_percentage, dependencies, business_impact
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				priority = EXCLUDED.priority,
				due_date = EXCLUDED.due_date,
				estimated_effort = EXCLUDED.estimated_effort,
				updated_at = now()
		`, plan.ID, plan.OrgID, plan.Title, plan.Description, plan.Framework, plan.ControlID,
			plan.Priority, plan.Status, plan.Assignee, plan.DueDate, plan.EstimatedEffort,
			plan.CompletionPercentage, plan.Dependencies, plan.BusinessImpact,
		)
		if err != nil {
			return fmt.Errorf("upsert plan %s: %w", plan.ControlID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// GetPlan retrieves an action plan by ID.
func (r *PlanRepository) GetPlan(ctx context.Context, id uuid.UUID) (*models.ActionPlan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM action_plans WHERE id = $1`, id)
	return scanPlan(row)
}

// ListPlans returns filtered plans, most urgent first.
func (r *PlanRepository) ListPlans(ctx context.Context, params service.ListPlansParams) ([]models.ActionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM action_plans WHERE org_id = $1`
	args := []any{params.OrgID}
	argIdx := 2

	if params.Framework != nil {
		query += fmt.Sprintf(" AND framework = $%d", argIdx)
		args = append(args, *params.Framework)
		argIdx++
	}
	if params.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Priority != nil {
		query += fmt.Sprintf(" AND priority = $%d", argIdx)
		args = append(args, *params.Priority)
		argIdx++
	}

	query += fmt.Sprintf(`
		ORDER BY CASE priority
			WHEN 'critical' THEN 4
			WHEN 'high' THEN 3
			WHEN 'medium' THEN 2
			ELSE 1
		END DESC, due_date ASC
		LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var result []models.ActionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// UpdatePlan replaces the editable fields of a plan.
func (r *PlanRepository) UpdatePlan(ctx context.Context, plan models.ActionPlan) (*models.ActionPlan, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE action_plans SET
			title = $2, description = $3, priority = $4, status = $5,
			assignee = $6, due_date = $7, estimated_effort = $8,
			completion_percentage = $9, dependencies = $10,
			business_impact = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+planColumns,
		plan.ID, plan.Title, plan.Description, plan.Priority, plan.Status,
		plan.Assignee, plan.DueDate, plan.EstimatedEffort,
		plan.CompletionPercentage, plan.Dependencies, plan.BusinessImpact,
	)
	return scanPlan(row)
}
