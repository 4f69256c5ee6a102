package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EvidenceStatus represents the validation state of an evidence record.
type EvidenceStatus string

const (
	EvidencePending  EvidenceStatus = "pending"
	EvidenceApproved EvidenceStatus = "approved"
	EvidenceRejected EvidenceStatus = "rejected"
)

// EvidenceType categorizes the kind of proof attached to an action plan.
type EvidenceType string

const (
	EvidenceDocument      EvidenceType = "document"
	EvidenceScreenshot    EvidenceType = "screenshot"
	EvidenceConfiguration EvidenceType = "configuration"
	EvidenceAttestation   EvidenceType = "attestation"
)

// Evidence represents a proof of implementation submitted against an action
// plan. It is created pending and validated exactly once by the RSSI;
// approved and rejected are both terminal.
type Evidence struct {
	ID           uuid.UUID      `json:"id"`
	OrgID        uuid.UUID      `json:"orgId"`
	ActionPlanID uuid.UUID      `json:"actionPlanId"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	SubmittedBy  string         `json:"submittedBy"`
	SubmittedAt  time.Time      `json:"submittedAt"`
	Department   string         `json:"department,omitempty"`
	Status       EvidenceStatus `json:"status"`
	ValidatedBy  *string        `json:"validatedBy,omitempty"`
	ValidatedAt  *time.Time     `json:"validatedAt,omitempty"`
	RSSIRemarks  string         `json:"rssiRemarks,omitempty"`
	EvidenceType EvidenceType   `json:"evidenceType"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// ValidateSubmission checks the required fields for a new evidence record.
func (e *Evidence) ValidateSubmission() error {
	if strings.TrimSpace(e.Title) == "" {
		return &ValidationError{Field: "title", Message: "le titre est obligatoire"}
	}
	if strings.TrimSpace(e.SubmittedBy) == "" {
		return &ValidationError{Field: "submittedBy", Message: "le soumissionnaire est obligatoire"}
	}
	if e.ActionPlanID == uuid.Nil {
		return &ValidationError{Field: "actionPlanId", Message: "le plan d'action associé est obligatoire"}
	}
	return nil
}

// Decide records the validation decision. Only a pending record may be
// decided, and only to approved or rejected; a second attempt fails with
// InvalidTransitionError. Remarks may still be amended afterwards through
// AmendRemarks.
func (e *Evidence) Decide(decision EvidenceStatus, validator, remarks string, at time.Time) error {
	if decision != EvidenceApproved && decision != EvidenceRejected {
		return &ValidationError{Field: "decision", Message: "la décision doit être approved ou rejected"}
	}
	if e.Status != EvidencePending {
		return &InvalidTransitionError{Entity: "evidence", From: string(e.Status), To: string(decision)}
	}
	e.Status = decision
	e.ValidatedBy = &validator
	e.ValidatedAt = &at
	e.RSSIRemarks = remarks
	return nil
}

// AmendRemarks updates the RSSI remarks on an already-validated record.
// The decision itself is immutable.
func (e *Evidence) AmendRemarks(remarks string) error {
	if e.Status == EvidencePending {
		return &ValidationError{Field: "status", Message: "les remarques ne peuvent être modifiées qu'après validation"}
	}
	e.RSSIRemarks = remarks
	return nil
}
