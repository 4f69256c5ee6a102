package maturity

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/conformeahq/conformea/pkg/models"
)

// PlannerPolicy tunes the synthetic fields of generated action plans. The
// exact day counts and effort buckets are an organizational choice; only
// the monotone relationship is contractual: the lower the current maturity,
// the more urgent the due date and the larger the estimated effort.
type PlannerPolicy struct {
	// MatureBaseline is the baseline maturity (0-4) from which a control no
	// longer needs a generated plan.
	MatureBaseline int
	// DueDaysPerLevel spaces due dates: due = now + (level+1) * DueDaysPerLevel.
	DueDaysPerLevel int
	// Efforts maps a plan priority to its estimated effort bucket.
	Efforts map[models.Priority]string
}

// DefaultPlannerPolicy returns the policy confirmed with the RSSI team.
func DefaultPlannerPolicy() PlannerPolicy {
	return PlannerPolicy{
		MatureBaseline:  3,
		DueDaysPerLevel: 30,
		Efforts: map[models.Priority]string{
			models.PriorityCritical: "2-3 mois",
			models.PriorityHigh:     "1-2 mois",
			models.PriorityMedium:   "2-4 semaines",
			models.PriorityLow:      "1-2 semaines",
		},
	}
}

// GeneratePlans synthesizes one action plan per leaf control whose catalog
// baseline maturity is below the mature threshold. Plans are new values,
// never aliasing catalog nodes, stably sorted by priority descending with
// catalog order as tie-break. The function is pure: same catalog, same now,
// same output.
func GeneratePlans(spec *FrameworkSpec, orgID uuid.UUID, now time.Time, policy PlannerPolicy) []models.ActionPlan {
	leaves, err := spec.Tree.Leaves("")
	if err != nil {
		return nil
	}

	plans := make([]models.ActionPlan, 0)
	for _, leaf := range leaves {
		if leaf.Baseline >= policy.MatureBaseline {
			continue
		}
		plans = append(plans, planForLeaf(spec, leaf, leaf.Baseline, orgID, now, policy))
	}

	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].Priority.Rank() > plans[j].Priority.Rank()
	})
	return plans
}

// PlansFromGaps derives action plans from gap analysis output instead of
// catalog baselines: one plan per gap record, priority carried over from
// the record. The input order (priority desc, catalog tie-break) is
// preserved.
func PlansFromGaps(spec *FrameworkSpec, records []GapRecord, orgID uuid.UUID, now time.Time, policy PlannerPolicy) []models.ActionPlan {
	plans := make([]models.ActionPlan, 0, len(records))
	for _, rec := range records {
		current := spec.Scale.ScoreOf(rec.CurrentLevel) - spec.Scale.MinScore()
		plan := models.ActionPlan{
			ID:                   deterministicPlanID(spec.Type, rec.ControlID),
			OrgID:                orgID,
			Title:                fmt.Sprintf("Combler l'écart de maturité — %s", rec.Title),
			Description:          planDescription(rec.Title, rec.Recommendations),
			Framework:            string(spec.Type),
			ControlID:            rec.ControlID,
			Priority:             rec.Priority,
			Status:               statusForLevel(current),
			DueDate:              dueDateFor(now, current, policy),
			EstimatedEffort:      policy.Efforts[rec.Priority],
			CompletionPercentage: completionFor(spec, rec.CurrentLevel),
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		plans = append(plans, plan)
	}
	return plans
}

func planForLeaf(spec *FrameworkSpec, leaf *ControlNode, level int, orgID uuid.UUID, now time.Time, policy PlannerPolicy) models.ActionPlan {
	gap := policy.MatureBaseline - level
	priority := models.PriorityForGap(gap)
	return models.ActionPlan{
		ID:                   deterministicPlanID(spec.Type, leaf.ID),
		OrgID:                orgID,
		Title:                fmt.Sprintf("Renforcer la maturité — %s", leaf.Title),
		Description:          fmt.Sprintf("Élever le contrôle %s (%s) au niveau de maturité cible.", leaf.ID, leaf.Title),
		Framework:            string(spec.Type),
		ControlID:            leaf.ID,
		Priority:             priority,
		Status:               statusForLevel(level),
		DueDate:              dueDateFor(now, level, policy),
		EstimatedEffort:      policy.Efforts[priority],
		CompletionPercentage: level * 100 / maxBaseline,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// maxBaseline is the top of the 0-4 baseline maturity scale catalogs use
// for their static maturity hints.
const maxBaseline = 4

// statusForLevel initializes plan status from current maturity: untouched
// controls start at not_started, anything already underway at in_progress.
func statusForLevel(level int) models.PlanStatus {
	if level == 0 {
		return models.PlanNotStarted
	}
	return models.PlanInProgress
}

// dueDateFor spaces due dates monotonically: a level-0 control is due
// first, each maturity level earned buys another policy interval.
func dueDateFor(now time.Time, level int, policy PlannerPolicy) time.Time {
	if level < 0 {
		level = 0
	}
	return now.AddDate(0, 0, (level+1)*policy.DueDaysPerLevel)
}

// completionFor maps a scale level to a 0-100 progress value:
// score / maxScore * 100, generalized over N-level scales.
func completionFor(spec *FrameworkSpec, current Level) int {
	max := spec.Scale.MaxScore()
	if max == 0 {
		return 0
	}
	return spec.Scale.ScoreOf(current) * 100 / max
}

func planDescription(title string, recommendations []string) string {
	if len(recommendations) == 0 {
		return fmt.Sprintf("Combler l'écart identifié sur « %s ».", title)
	}
	return fmt.Sprintf("Combler l'écart identifié sur « %s ». Première action recommandée : %s", title, recommendations[0])
}

// deterministicPlanID derives a stable id from the framework and control,
// so regenerating plans for the same catalog yields the same ids.
func deterministicPlanID(ft FrameworkType, controlID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(ft)+"/"+controlID))
}
