// Package planner expands COMPLEX and EPIC tasks into ordered, dependency-
// aware subtask plans. Phase templates come from the registry catalog;
// decomposition never fails for a task that reaches it.
package planner

import (
	"github.com/taskgate/taskgate/internal/features"
	"github.com/taskgate/taskgate/internal/registry"
	"github.com/taskgate/taskgate/models"
)

// genericTemplate is the fallback when no catalog template matches the task's
// keyword profile. Decomposition must always succeed for COMPLEX/EPIC input.
var genericTemplate = registry.PhaseTemplate{
	Key: "generic",
	Phases: []registry.PhaseSpec{
		{Title: "Analysis", Share: 0.25},
		{Title: "Implementation", Share: 0.50},
		{Title: "Validation", Share: 0.25, Specialty: []string{"test", "testing", "qa"}},
	},
}

// Decompose expands the task into a subtask plan. Tasks below COMPLEX return
// an empty plan; this is a hard gate, not an optimization.
func Decompose(assessment models.ComplexityAssessment, matches []models.AgentMatch, feats features.TokenSet, reg *registry.Registry) []models.SubtaskPlan {
	if !assessment.Tier.Decomposable() {
		return nil
	}

	tmpl := selectTemplate(feats, reg)
	plan := make([]models.SubtaskPlan, 0, len(tmpl.Phases))

	// prevGroup holds the indices of the previous dependency group; every
	// phase in the current group depends on all of them. Consecutive phases
	// marked parallel share a group, so a join phase after a parallel pair
	// depends on both branches.
	var prevGroup, group []int

	for i, phase := range tmpl.Phases {
		if i > 0 && !phase.Parallel {
			prevGroup, group = group, nil
		}
		deps := make([]int, len(prevGroup))
		copy(deps, prevGroup)

		plan = append(plan, models.SubtaskPlan{
			SequenceIndex:      i,
			Title:              phase.Title,
			RecommendedAgentID: phaseAgent(phase, matches, reg),
			EstimatedHours:     phaseHours(assessment.EstimatedHours, phase.Share),
			DependsOn:          deps,
		})
		group = append(group, i)
	}

	return plan
}

// selectTemplate picks the catalog template with the most trigger hits in the
// feature set. Declaration order breaks ties; no hits means the generic
// three-phase fallback.
func selectTemplate(feats features.TokenSet, reg *registry.Registry) registry.PhaseTemplate {
	best := genericTemplate
	bestHits := 0
	for _, tmpl := range reg.Templates() {
		hits := 0
		for _, trigger := range tmpl.Triggers {
			if feats.Has(trigger) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = tmpl, hits
		}
	}
	return best
}

// phaseAgent picks the best-ranked match whose profile keywords overlap the
// phase specialty, falling back to the overall top match. An empty result
// means the phase is unassigned (possible only when there are no matches).
func phaseAgent(phase registry.PhaseSpec, matches []models.AgentMatch, reg *registry.Registry) string {
	if len(matches) == 0 {
		return ""
	}
	if len(phase.Specialty) > 0 {
		specialty := make(map[string]struct{}, len(phase.Specialty))
		for _, s := range phase.Specialty {
			specialty[s] = struct{}{}
		}
		for _, m := range matches {
			profile, ok := reg.Find(m.AgentID)
			if !ok {
				continue
			}
			for _, kw := range profile.Keywords {
				if _, hit := specialty[kw]; hit {
					return m.AgentID
				}
			}
		}
	}
	return matches[0].AgentID
}

// phaseHours allocates the phase's fixed share of the parent estimate,
// rounded to the half hour but never below it. The plan total approximates
// the parent estimate; it need not equal it exactly.
func phaseHours(total, share float64) float64 {
	h := roundHalf(total * share)
	if h < 0.5 {
		h = 0.5
	}
	return h
}

func roundHalf(v float64) float64 {
	if v < 0 {
		return 0
	}
	return float64(int(v*2+0.5)) / 2
}
