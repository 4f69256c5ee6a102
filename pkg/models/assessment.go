package models

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentStatus represents the lifecycle of a maturity self-assessment.
type AssessmentStatus string

const (
	AssessmentOpen      AssessmentStatus = "open"
	AssessmentCompleted AssessmentStatus = "completed"
)

// Assessment represents one maturity self-assessment session of an
// organization against a framework. Responses are stored separately and
// cleared when the assessment is reset.
type Assessment struct {
	ID          uuid.UUID        `json:"id"`
	OrgID       uuid.UUID        `json:"orgId"`
	Framework   string           `json:"framework"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Status      AssessmentStatus `json:"status"`
	InitiatedBy string           `json:"initiatedBy,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}
