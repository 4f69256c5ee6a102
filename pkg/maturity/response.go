package maturity

import (
	"fmt"
	"strings"

	"github.com/conformeahq/conformea/pkg/models"
)

// ImplementationStatus describes how far a control is implemented,
// independently of its maturity level.
type ImplementationStatus string

const (
	StatusNotImplemented ImplementationStatus = "not_implemented"
	StatusPartial        ImplementationStatus = "partial"
	StatusFull           ImplementationStatus = "full"
	StatusNotApplicable  ImplementationStatus = "not_applicable"
)

var validStatuses = map[ImplementationStatus]bool{
	StatusNotImplemented: true,
	StatusPartial:        true,
	StatusFull:           true,
	StatusNotApplicable:  true,
}

// Response holds one answered leaf control of an assessment.
type Response struct {
	ControlID    string               `json:"controlId"`
	CurrentLevel Level                `json:"currentLevel"`
	TargetLevel  Level                `json:"targetLevel"`
	Status       ImplementationStatus `json:"status"`
	Evidence     string               `json:"evidence,omitempty"`
	Gaps         []string             `json:"gaps,omitempty"`
	Comment      string               `json:"comment,omitempty"`
}

// ResponseUpdate carries a partial edit of a response. Nil fields are left
// untouched, so concurrent edits of different fields never clobber each
// other. GapsText is free text split into one gap statement per non-empty
// line.
type ResponseUpdate struct {
	CurrentLevel *Level                `json:"currentLevel,omitempty"`
	TargetLevel  *Level                `json:"targetLevel,omitempty"`
	Status       *ImplementationStatus `json:"status,omitempty"`
	Evidence     *string               `json:"evidence,omitempty"`
	GapsText     *string               `json:"gaps,omitempty"`
	Comment      *string               `json:"comment,omitempty"`
}

// Store is the sparse in-memory collection of assessment responses, one per
// answered leaf control. Reads never mutate storage: an unanswered control
// materializes a default response on the fly.
type Store struct {
	spec      *FrameworkSpec
	responses map[string]Response
}

// NewStore creates an empty response store for a framework.
func NewStore(spec *FrameworkSpec) *Store {
	return &Store{
		spec:      spec,
		responses: make(map[string]Response),
	}
}

// defaultResponse materializes the unanswered state of a control: lowest
// level, second-lowest target, not implemented, empty free text.
func (st *Store) defaultResponse(controlID string) Response {
	return Response{
		ControlID:    controlID,
		CurrentLevel: st.spec.Scale.Lowest(),
		TargetLevel:  st.spec.Scale.DefaultTarget(),
		Status:       StatusNotImplemented,
	}
}

// Get returns the response for a control, or a materialized default when
// none has been recorded. The default is not inserted into the store.
func (st *Store) Get(controlID string) Response {
	if r, ok := st.responses[controlID]; ok {
		return r
	}
	return st.defaultResponse(controlID)
}

// Has reports whether a control has been answered. Scoring excludes
// unanswered leaves from averages instead of defaulting them.
func (st *Store) Has(controlID string) bool {
	_, ok := st.responses[controlID]
	return ok
}

// Len returns the number of answered controls.
func (st *Store) Len() int {
	return len(st.responses)
}

// Apply upserts a partial edit on one control. The control must be an
// assessable leaf of the framework tree; levels must belong to the scale
// and the status must be known. Fields update independently,
// last-write-wins per field.
func (st *Store) Apply(controlID string, upd ResponseUpdate) error {
	node, err := st.spec.Tree.Find(controlID)
	if err != nil {
		return err
	}
	if !node.IsLeaf() {
		return &models.ValidationError{Field: "controlId", Message: fmt.Sprintf("le contrôle %s n'est pas évaluable", controlID)}
	}
	if upd.CurrentLevel != nil && !st.spec.Scale.Contains(*upd.CurrentLevel) {
		return &models.ValidationError{Field: "currentLevel", Message: fmt.Sprintf("niveau inconnu %q", *upd.CurrentLevel)}
	}
	if upd.TargetLevel != nil && !st.spec.Scale.Contains(*upd.TargetLevel) {
		return &models.ValidationError{Field: "targetLevel", Message: fmt.Sprintf("niveau inconnu %q", *upd.TargetLevel)}
	}
	if upd.Status != nil && !validStatuses[*upd.Status] {
		return &models.ValidationError{Field: "status", Message: fmt.Sprintf("statut inconnu %q", *upd.Status)}
	}

	r := st.Get(controlID)
	if upd.CurrentLevel != nil {
		r.CurrentLevel = *upd.CurrentLevel
	}
	if upd.TargetLevel != nil {
		r.TargetLevel = *upd.TargetLevel
	}
	if upd.Status != nil {
		r.Status = *upd.Status
	}
	if upd.Evidence != nil {
		r.Evidence = *upd.Evidence
	}
	if upd.GapsText != nil {
		r.Gaps = splitGaps(*upd.GapsText)
	}
	if upd.Comment != nil {
		r.Comment = *upd.Comment
	}
	st.responses[controlID] = r
	return nil
}

// Put replaces a whole response, validating it like Apply. Used when
// reloading a persisted assessment.
func (st *Store) Put(r Response) error {
	upd := ResponseUpdate{
		CurrentLevel: &r.CurrentLevel,
		TargetLevel:  &r.TargetLevel,
		Status:       &r.Status,
		Evidence:     &r.Evidence,
		Comment:      &r.Comment,
	}
	gaps := strings.Join(r.Gaps, "\n")
	upd.GapsText = &gaps
	return st.Apply(r.ControlID, upd)
}

// Responses returns the answered responses keyed by control id.
func (st *Store) Responses() map[string]Response {
	out := make(map[string]Response, len(st.responses))
	for id, r := range st.responses {
		out[id] = r
	}
	return out
}

// Reset clears every response, reopening the assessment from scratch.
func (st *Store) Reset() {
	st.responses = make(map[string]Response)
}

// IsComplete reports whether a control response is complete: current level
// and implementation status set with non-empty evidence. Levels and status
// always hold a value once answered, so evidence is the discriminator for
// an answered control.
func (st *Store) IsComplete(controlID string) bool {
	r, ok := st.responses[controlID]
	if !ok {
		return false
	}
	return strings.TrimSpace(r.Evidence) != ""
}

// CompletionRatio returns the share of complete leaves under a branch, or
// of the whole tree when branchID is empty. A branch without leaves yields
// 0, not NaN.
func (st *Store) CompletionRatio(branchID string) (float64, error) {
	leaves, err := st.spec.Tree.Leaves(branchID)
	if err != nil {
		return 0, err
	}
	if len(leaves) == 0 {
		return 0, nil
	}
	complete := 0
	for _, leaf := range leaves {
		if st.IsComplete(leaf.ID) {
			complete++
		}
	}
	return float64(complete) / float64(len(leaves)), nil
}

func splitGaps(text string) []string {
	var gaps []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			gaps = append(gaps, trimmed)
		}
	}
	return gaps
}
