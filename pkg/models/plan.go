// Package models provides domain models for Conformea.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority represents the remediation priority of a gap or action plan.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// priorityRank orders priorities for sorting, highest first.
var priorityRank = map[Priority]int{
	PriorityCritical: 4,
	PriorityHigh:     3,
	PriorityMedium:   2,
	PriorityLow:      1,
}

// Rank returns the sort rank of a priority. Higher means more urgent.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// PriorityForGap converts an integer maturity gap into a priority band.
// Thresholds apply to the raw level gap, not a percentage.
func PriorityForGap(gap int) Priority {
	switch {
	case gap >= 3:
		return PriorityCritical
	case gap >= 2:
		return PriorityHigh
	case gap >= 1:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// PlanStatus represents the lifecycle state of an action plan.
type PlanStatus string

const (
	PlanNotStarted PlanStatus = "not_started"
	PlanInProgress PlanStatus = "in_progress"
	PlanCompleted  PlanStatus = "completed"
	PlanBlocked    PlanStatus = "blocked"
)

// planTransitions lists the allowed status transitions. Completed is
// terminal; blocked is reachable from any non-terminal state and only
// returns to in_progress.
var planTransitions = map[PlanStatus][]PlanStatus{
	PlanNotStarted: {PlanInProgress, PlanBlocked},
	PlanInProgress: {PlanCompleted, PlanBlocked},
	PlanBlocked:    {PlanInProgress},
	PlanCompleted:  {},
}

// CanTransitionTo reports whether a status change is legal.
func (s PlanStatus) CanTransitionTo(next PlanStatus) bool {
	for _, allowed := range planTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ActionPlan represents a remediation action, either synthesized by the
// plan generator from low-maturity controls or created manually.
type ActionPlan struct {
	ID                   uuid.UUID   `json:"id"`
	OrgID                uuid.UUID   `json:"orgId"`
	Title                string      `json:"title"`
	Description          string      `json:"description"`
	Framework            string      `json:"framework"`
	ControlID            string      `json:"controlId"`
	Priority             Priority    `json:"priority"`
	Status               PlanStatus  `json:"status"`
	Assignee             string      `json:"assignee,omitempty"`
	DueDate              time.Time   `json:"dueDate"`
	EstimatedEffort      string      `json:"estimatedEffort,omitempty"`
	CompletionPercentage int         `json:"completionPercentage"`
	Dependencies         []uuid.UUID `json:"dependencies,omitempty"`
	BusinessImpact       string      `json:"businessImpact,omitempty"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}

// TransitionTo moves the plan to the given status, enforcing the state
// machine. A completed plan is never reopened.
func (p *ActionPlan) TransitionTo(next PlanStatus) error {
	if !p.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{Entity: "action_plan", From: string(p.Status), To: string(next)}
	}
	p.Status = next
	if next == PlanCompleted {
		p.CompletionPercentage = 100
	}
	return nil
}

// Validate checks the required fields for a manually created plan.
// It returns the first failing field; submission is blocked, nothing is
// partially saved.
func (p *ActionPlan) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Field: "title", Message: "le titre est obligatoire"}
	}
	if strings.TrimSpace(p.Description) == "" {
		return &ValidationError{Field: "description", Message: "la description est obligatoire"}
	}
	if strings.TrimSpace(p.ControlID) == "" {
		return &ValidationError{Field: "controlId", Message: "le critère de référence est obligatoire"}
	}
	if strings.TrimSpace(p.Assignee) == "" {
		return &ValidationError{Field: "assignee", Message: "le responsable est obligatoire"}
	}
	if p.DueDate.IsZero() {
		return &ValidationError{Field: "dueDate", Message: "l'échéance est obligatoire"}
	}
	if p.CompletionPercentage < 0 || p.CompletionPercentage > 100 {
		return &ValidationError{Field: "completionPercentage", Message: "l'avancement doit être entre 0 et 100"}
	}
	return nil
}
