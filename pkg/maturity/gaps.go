package maturity

import (
	"sort"

	"github.com/conformeahq/conformea/pkg/models"
)

// GapRecord describes one leaf control whose target maturity exceeds its
// current maturity. Records are only emitted for strictly positive gaps.
type GapRecord struct {
	ControlID       string          `json:"controlId"`
	BranchID        string          `json:"branchId"`
	Title           string          `json:"title"`
	CurrentLevel    Level           `json:"currentLevel"`
	TargetLevel     Level           `json:"targetLevel"`
	GapMagnitude    int             `json:"gapMagnitude"`
	Priority        models.Priority `json:"priority"`
	Recommendations []string        `json:"recommendations"`
}

// RecommendationPolicy tunes how many remediation statements a gap record
// carries. Gaps of at least FullListMinGap get the branch's whole list,
// smaller gaps at most MaxWhenMinor entries. This is a display policy, not
// a scoring rule.
type RecommendationPolicy struct {
	FullListMinGap int
	MaxWhenMinor   int
}

// DefaultRecommendationPolicy returns the policy used by the dashboards:
// full list from a two-level gap, otherwise the first two statements.
func DefaultRecommendationPolicy() RecommendationPolicy {
	return RecommendationPolicy{FullListMinGap: 2, MaxWhenMinor: 2}
}

// AnalyzeGaps walks the answered leaves under branchID (or the whole tree
// when empty) and returns one record per positive gap, sorted by priority
// descending with the catalog's declared order as tie-break. The sort is
// stable, so repeated exports of unchanged data are identical.
func (e *Engine) AnalyzeGaps(branchID string) ([]GapRecord, error) {
	return e.AnalyzeGapsWithPolicy(branchID, DefaultRecommendationPolicy())
}

// AnalyzeGapsWithPolicy is AnalyzeGaps with an explicit recommendation
// policy.
func (e *Engine) AnalyzeGapsWithPolicy(branchID string, policy RecommendationPolicy) ([]GapRecord, error) {
	leaves, err := e.spec.Tree.Leaves(branchID)
	if err != nil {
		return nil, err
	}

	records := make([]GapRecord, 0)
	for _, leaf := range leaves {
		if !e.store.Has(leaf.ID) {
			continue
		}
		r := e.store.Get(leaf.ID)
		gap := e.spec.Scale.ScoreOf(r.TargetLevel) - e.spec.Scale.ScoreOf(r.CurrentLevel)
		if gap <= 0 {
			continue
		}
		branch, err := e.spec.Tree.BranchOf(leaf.ID)
		if err != nil {
			return nil, err
		}
		records = append(records, GapRecord{
			ControlID:       leaf.ID,
			BranchID:        branch,
			Title:           leaf.Title,
			CurrentLevel:    r.CurrentLevel,
			TargetLevel:     r.TargetLevel,
			GapMagnitude:    gap,
			Priority:        models.PriorityForGap(gap),
			Recommendations: e.recommendationsFor(branch, gap, policy),
		})
	}

	// Leaves arrive in declared catalog order; the stable sort keeps that
	// order as the tie-break within each priority band.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Priority.Rank() > records[j].Priority.Rank()
	})
	return records, nil
}

// recommendationsFor looks up the branch's remediation statements. An
// unknown branch yields an empty list: recommendations are advisory.
func (e *Engine) recommendationsFor(branchID string, gap int, policy RecommendationPolicy) []string {
	all := e.spec.Recommendations[branchID]
	if len(all) == 0 {
		return []string{}
	}
	if gap >= policy.FullListMinGap {
		return append([]string(nil), all...)
	}
	n := policy.MaxWhenMinor
	if n > len(all) {
		n = len(all)
	}
	return append([]string(nil), all[:n]...)
}
