package maturity

// BranchScore is the aggregated maturity of one top-level branch, derived
// on demand from the current responses. It is never stored: recomputing is
// O(leaves) and has no state to corrupt.
type BranchScore struct {
	BranchID         string  `json:"branchId"`
	CurrentScore     float64 `json:"currentScore"`
	TargetScore      float64 `json:"targetScore"`
	GapScore         float64 `json:"gapScore"`
	MaturityLevel    Level   `json:"maturityLevel"`
	ImplementedRatio float64 `json:"implementedRatio"`
	TotalLeaves      int     `json:"totalLeaves"`
	AssessedLeaves   int     `json:"assessedLeaves"`
}

// Engine aggregates assessment responses into branch and overall scores.
// All methods are pure reads over the store; callers may recompute on
// every edit.
type Engine struct {
	spec  *FrameworkSpec
	store *Store
}

// NewEngine creates a scoring engine over a framework and its responses.
func NewEngine(spec *FrameworkSpec, store *Store) *Engine {
	return &Engine{spec: spec, store: store}
}

// Spec returns the framework spec the engine scores against.
func (e *Engine) Spec() *FrameworkSpec {
	return e.spec
}

// Store returns the response store backing the engine.
func (e *Engine) Store() *Store {
	return e.store
}

// BranchScore aggregates the leaves under one branch. Only answered leaves
// enter the current/target averages; a branch with no answered leaf scores
// 0 on both, never NaN. The gap may be negative when a target was set below
// the current level, which signals an over-achieved control rather than an
// error. ImplementedRatio counts partially or fully implemented leaves over
// all leaves of the branch.
func (e *Engine) BranchScore(branchID string) (BranchScore, error) {
	leaves, err := e.spec.Tree.Leaves(branchID)
	if err != nil {
		return BranchScore{}, err
	}

	var currentSum, targetSum float64
	assessed := 0
	implemented := 0
	for _, leaf := range leaves {
		r := e.store.Get(leaf.ID)
		if r.Status == StatusFull || r.Status == StatusPartial {
			implemented++
		}
		if !e.store.Has(leaf.ID) {
			continue
		}
		assessed++
		currentSum += float64(e.spec.Scale.ScoreOf(r.CurrentLevel))
		targetSum += float64(e.spec.Scale.ScoreOf(r.TargetLevel))
	}

	score := BranchScore{
		BranchID:       branchID,
		TotalLeaves:    len(leaves),
		AssessedLeaves: assessed,
	}
	if assessed > 0 {
		score.CurrentScore = currentSum / float64(assessed)
		score.TargetScore = targetSum / float64(assessed)
	}
	score.GapScore = score.TargetScore - score.CurrentScore
	score.MaturityLevel = e.spec.Scale.LevelOf(score.CurrentScore)
	if len(leaves) > 0 {
		score.ImplementedRatio = float64(implemented) / float64(len(leaves))
	}
	return score, nil
}

// BranchScores returns the score of every top-level branch in declared
// order.
func (e *Engine) BranchScores() []BranchScore {
	branches := e.spec.Tree.Branches()
	scores := make([]BranchScore, 0, len(branches))
	for _, b := range branches {
		// Branch ids come from the tree itself, lookup cannot fail.
		s, _ := e.BranchScore(b.ID)
		scores = append(scores, s)
	}
	return scores
}

// OverallScore is the unweighted mean of the branch current scores over all
// top-level branches, 0 when the tree has no branches.
func (e *Engine) OverallScore() float64 {
	scores := e.BranchScores()
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s.CurrentScore
	}
	return sum / float64(len(scores))
}

// OverallLevel buckets the overall score into a maturity level.
func (e *Engine) OverallLevel() Level {
	return e.spec.Scale.LevelOf(e.OverallScore())
}
