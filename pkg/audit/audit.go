// Package audit records who did what to assessments, plans and evidence.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conformeahq/conformea/pkg/logger"
	"github.com/conformeahq/conformea/pkg/telemetry"
)

// Logger writes audit entries to Postgres.
type Logger struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewLogger creates a new audit logger.
func NewLogger(db *pgxpool.Pool, log *logger.Logger) *Logger {
	return &Logger{
		db:  db,
		log: log.WithComponent("audit"),
	}
}

// Actions recorded by the platform.
const (
	ActionAssessmentCreated   = "assessment.created"
	ActionAssessmentCompleted = "assessment.completed"
	ActionResponseUpdated     = "assessment.response_updated"
	ActionPlansGenerated      = "plans.generated"
	ActionPlanUpdated         = "plan.updated"
	ActionPlanStatusChanged   = "plan.status_changed"
	ActionEvidenceSubmitted   = "evidence.submitted"
	ActionEvidenceValidated   = "evidence.validated"
)

// ActorType defines who performed the action.
type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
	ActorTypeAPIKey ActorType = "api_key"
)

// Status indicates the outcome of the action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusDenied  Status = "denied"
)

// Entry represents an audit log entry.
type Entry struct {
	ActorType ActorType `json:"actorType"`
	ActorID   string    `json:"actorId"`
	OrgID     uuid.UUID `json:"orgId"`

	Action       string `json:"action"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId,omitempty"`

	Changes map[string]Change `json:"changes,omitempty"`
	Context map[string]any    `json:"context,omitempty"`

	RequestID string `json:"requestId,omitempty"`

	Status       Status `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Change represents a field change.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Row is a persisted audit entry.
type Row struct {
	ID           uuid.UUID         `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	ActorType    ActorType         `json:"actorType"`
	ActorID      string            `json:"actorId"`
	OrgID        uuid.UUID         `json:"orgId"`
	Action       string            `json:"action"`
	ResourceType string            `json:"resourceType"`
	ResourceID   string            `json:"resourceId"`
	Changes      map[string]Change `json:"changes,omitempty"`
	Context      map[string]any    `json:"context,omitempty"`
	RequestID    string            `json:"requestId,omitempty"`
	Status       Status            `json:"status"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
}

// Log writes an audit entry to the database.
func (l *Logger) Log(ctx context.Context, entry Entry) error {
	changesJSON, err := json.Marshal(entry.Changes)
	if err != nil {
		changesJSON = []byte("{}")
	}
	contextJSON, err := json.Marshal(entry.Context)
	if err != nil {
		contextJSON = []byte("{}")
	}

	query := `
		INSERT INTO audit_logs (
			actor_type, actor_id, org_id,
			action, resource_type, resource_id,
			changes, context, request_id,
			status, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = l.db.Exec(ctx, query,
		entry.ActorType, entry.ActorID, entry.OrgID,
		entry.Action, entry.ResourceType, entry.ResourceID,
		changesJSON, contextJSON, entry.RequestID,
		entry.Status, entry.ErrorMessage,
	)
	if err != nil {
		l.log.Error("failed to write audit log", "error", err, "action", entry.Action)
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	return nil
}

// LogAsync writes an audit entry asynchronously (fire and forget).
func (l *Logger) LogAsync(ctx context.Context, entry Entry) {
	go func() {
		// The request context may already be cancelled by the time this runs.
		logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := l.Log(logCtx, entry); err != nil {
			l.log.Error("async audit log failed", "error", err, "action", entry.Action)
		}
	}()
}

// QueryFilters narrow an audit trail query.
type QueryFilters struct {
	OrgID        uuid.UUID
	ActorType    ActorType
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	StartTime    time.Time
	EndTime      time.Time
	Status       Status
	Limit        int
	Offset       int
}

// Query retrieves audit logs with filters, newest first.
func (l *Logger) Query(ctx context.Context, filters QueryFilters) ([]Row, error) {
	query := `
		SELECT id, timestamp, actor_type, actor_id, org_id,
			action, resource_type, resource_id,
			changes, context, request_id,
			status, error_message
		FROM audit_logs
		WHERE org_id = $1
	`
	args := []any{filters.OrgID}
	argIdx := 2

	if filters.ActorType != "" {
		query += fmt.Sprintf(" AND actor_type = $%d", argIdx)
		args = append(args, filters.ActorType)
		argIdx++
	}
	if filters.ActorID != "" {
		query += fmt.Sprintf(" AND actor_id = $%d", argIdx)
		args = append(args, filters.ActorID)
		argIdx++
	}
	if filters.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, filters.Action)
		argIdx++
	}
	if filters.ResourceType != "" {
		query += fmt.Sprintf(" AND resource_type = $%d", argIdx)
		args = append(args, filters.ResourceType)
		argIdx++
	}
	if filters.ResourceID != "" {
		query += fmt.Sprintf(" AND resource_id = $%d", argIdx)
		args = append(args, filters.ResourceID)
		argIdx++
	}
	if !filters.StartTime.IsZero() {
		query += fmt.Sprintf(" AND timestamp >= $%d", argIdx)
		args = append(args, filters.StartTime)
		argIdx++
	}
	if !filters.EndTime.IsZero() {
		query += fmt.Sprintf(" AND timestamp <= $%d", argIdx)
		args = append(args, filters.EndTime)
		argIdx++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filters.Status)
		argIdx++
	}

	query += " ORDER BY timestamp DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filters.Limit)
	} else {
		query += " LIMIT 100"
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filters.Offset)
	}

	ctx, span := telemetry.DatabaseSpan(ctx, "select", "audit_logs")
	defer span.End()

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var results []Row
	for rows.Next() {
		var row Row
		var changes, rowCtx []byte

		err := rows.Scan(
			&row.ID, &row.Timestamp, &row.ActorType, &row.ActorID, &row.OrgID,
			&row.Action, &row.ResourceType, &row.ResourceID,
			&changes, &rowCtx, &row.RequestID,
			&row.Status, &row.ErrorMessage,
		)
		if err != nil {
			l.log.Warn("failed to scan audit row", "error", err)
			continue
		}

		json.Unmarshal(changes, &row.Changes)
		json.Unmarshal(rowCtx, &row.Context)

		results = append(results, row)
	}

	return results, rows.Err()
}
