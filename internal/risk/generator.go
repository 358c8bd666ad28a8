// Package risk derives qualitative risk factors and acceptance criteria from
// the signals the rest of the pipeline already computed. Generation is a pure
// function: no new state, no I/O, same input always yields the same lists.
package risk

import (
	"fmt"

	"github.com/taskgate/taskgate/internal/features"
	"github.com/taskgate/taskgate/internal/registry"
	"github.com/taskgate/taskgate/models"
	"github.com/taskgate/taskgate/types"
)

// securityKeywords flag work that needs a compliance/security review pass.
var securityKeywords = []string{
	"security", "auth", "authentication", "encryption", "jwt", "oauth",
	"compliance", "pii", "gdpr", "vulnerability",
}

// criteriaAgents caps how many matched agents contribute their own success
// criterion; beyond the top few the list stops being actionable.
const criteriaAgents = 3

// Generate produces the risk factors and success criteria for an analysis.
func Generate(assessment models.ComplexityAssessment, matches []models.AgentMatch, feats features.TokenSet, reg *registry.Registry, cfg types.EngineConfig) (risks, criteria []string) {
	risks = riskFactors(assessment, matches, feats, cfg)
	criteria = successCriteria(assessment, matches, reg)
	return risks, criteria
}

func riskFactors(assessment models.ComplexityAssessment, matches []models.AgentMatch, feats features.TokenSet, cfg types.EngineConfig) []string {
	var risks []string

	switch {
	case len(matches) == 0:
		risks = append(risks, "No specialist matched this task; routing requires manual triage")
	case matches[0].Confidence < cfg.LowConfidence:
		risks = append(risks, fmt.Sprintf("Specialization mismatch: top match %s scored %.2f confidence", matches[0].AgentID, matches[0].Confidence))
	}

	if assessment.Tier == models.ComplexityEpic {
		risks = append(risks,
			"Scope creep: epic-sized work tends to grow past its original boundaries",
			"Cross-team coordination overhead across phases",
		)
	}

	for _, kw := range securityKeywords {
		if feats.Has(kw) {
			risks = append(risks, "Compliance/security review required before release")
			break
		}
	}

	if assessment.Priority == models.PriorityUrgent && assessment.Tier.Decomposable() {
		risks = append(risks, "Urgent priority on large scope invites shortcuts; review carefully")
	}

	return risks
}

func successCriteria(assessment models.ComplexityAssessment, matches []models.AgentMatch, reg *registry.Registry) []string {
	criteria := []string{"Acceptance checks pass and the change is reviewed"}

	seen := map[string]struct{}{}
	added := 0
	for _, m := range matches {
		if added >= criteriaAgents {
			break
		}
		profile, ok := reg.Find(m.AgentID)
		if !ok || profile.SuccessCriterion == "" {
			continue
		}
		if _, dup := seen[profile.SuccessCriterion]; dup {
			continue
		}
		seen[profile.SuccessCriterion] = struct{}{}
		criteria = append(criteria, profile.SuccessCriterion)
		added++
	}

	if assessment.Tier.Decomposable() {
		criteria = append(criteria, "Each subtask meets its own acceptance criteria before integration")
	}

	return criteria
}
