package ui

import (
	"strings"
	"testing"

	"github.com/taskgate/taskgate/models"
)

var testProfiles = []models.AgentProfile{
	{ID: "backend-developer", DisplayName: "Backend Developer", Tier: models.TierStandard, Keywords: []string{"api"}},
	{ID: "qa-engineer", DisplayName: "QA Engineer", Tier: models.TierLight, Keywords: []string{"testing"}},
}

func TestRenderAnalysis(t *testing.T) {
	a := &models.TaskAnalysis{
		Matches: []models.AgentMatch{
			{AgentID: "backend-developer", Confidence: 0.8, MatchedKeywords: []string{"api"}},
		},
		Assessment: models.ComplexityAssessment{
			Tier:           models.ComplexityComplex,
			EstimatedHours: 40,
			Priority:       models.PriorityHigh,
		},
		Plan: []models.SubtaskPlan{
			{SequenceIndex: 0, Title: "Analysis", EstimatedHours: 10, RecommendedAgentID: "backend-developer"},
			{SequenceIndex: 1, Title: "Implementation", EstimatedHours: 20, DependsOn: []int{0}},
			{SequenceIndex: 2, Title: "Validation", EstimatedHours: 10, RecommendedAgentID: "qa-engineer", DependsOn: []int{1}},
		},
		RiskFactors:     []string{"Compliance/security review required before release"},
		SuccessCriteria: []string{"Acceptance checks pass and the change is reviewed"},
	}

	out := RenderAnalysis(a, testProfiles)

	for _, want := range []string{
		"COMPLEX",
		"Backend Developer",
		"0.80",
		"Implementation",
		"(after 2)",
		"security review",
		"Acceptance checks pass",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered analysis missing %q:\n%s", want, out)
		}
	}
}

func TestRenderAnalysisNoMatches(t *testing.T) {
	a := &models.TaskAnalysis{
		Assessment: models.ComplexityAssessment{
			Tier:           models.ComplexitySimple,
			EstimatedHours: 2,
			Priority:       models.PriorityMedium,
		},
	}

	out := RenderAnalysis(a, testProfiles)
	if !strings.Contains(out, "manual triage") {
		t.Errorf("no-match rendering should point at manual triage:\n%s", out)
	}
}

func TestRenderAgentList(t *testing.T) {
	out := RenderAgentList(testProfiles)

	if !strings.Contains(out, "backend-developer") || !strings.Contains(out, "QA Engineer") {
		t.Errorf("agent list missing expected entries:\n%s", out)
	}
	// Sorted by id: backend before qa.
	if strings.Index(out, "backend-developer") > strings.Index(out, "qa-engineer") {
		t.Error("agent list not sorted by id")
	}
}

func TestTableTruncation(t *testing.T) {
	tab := Table{
		Headers:  []string{"Col"},
		Rows:     [][]string{{"a very long value that will not fit"}},
		MaxWidth: 10,
	}
	out := tab.Render()
	if !strings.Contains(out, "…") {
		t.Errorf("over-wide cell should be truncated with ellipsis:\n%s", out)
	}
}

func TestTierBadge(t *testing.T) {
	for _, tier := range []models.ComplexityTier{
		models.ComplexitySimple, models.ComplexityModerate, models.ComplexityComplex, models.ComplexityEpic,
	} {
		badge := TierBadge(tier)
		if !strings.Contains(badge, strings.ToUpper(string(tier))) {
			t.Errorf("badge for %s = %q, want uppercase label", tier, badge)
		}
	}
}
