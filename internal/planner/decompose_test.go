package planner

import (
	"math"
	"reflect"
	"testing"

	"github.com/spf13/afero"

	"github.com/taskgate/taskgate/internal/features"
	"github.com/taskgate/taskgate/internal/registry"
	"github.com/taskgate/taskgate/models"
)

func builtin(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.Load(afero.NewMemMapFs(), "")
	if err != nil {
		t.Fatalf("Load builtin: %v", err)
	}
	return r
}

func complexAssessment(hours float64) models.ComplexityAssessment {
	return models.ComplexityAssessment{Tier: models.ComplexityComplex, EstimatedHours: hours, Priority: models.PriorityMedium}
}

func TestDecomposeGating(t *testing.T) {
	reg := builtin(t)
	feats := features.Extract("migrate the platform")
	matches := []models.AgentMatch{{AgentID: "backend-developer", Confidence: 0.5}}

	for _, tier := range []models.ComplexityTier{models.ComplexitySimple, models.ComplexityModerate} {
		a := models.ComplexityAssessment{Tier: tier, EstimatedHours: 4, Priority: models.PriorityMedium}
		if plan := Decompose(a, matches, feats, reg); len(plan) != 0 {
			t.Errorf("%s task produced a plan of %d nodes, want none", tier, len(plan))
		}
	}
	for _, tier := range []models.ComplexityTier{models.ComplexityComplex, models.ComplexityEpic} {
		a := models.ComplexityAssessment{Tier: tier, EstimatedHours: 40, Priority: models.PriorityMedium}
		if plan := Decompose(a, matches, feats, reg); len(plan) == 0 {
			t.Errorf("%s task produced no plan", tier)
		}
	}
}

func TestDecomposeMigrationTemplate(t *testing.T) {
	reg := builtin(t)
	feats := features.Extract("Migrate monolith to microservices, phase 1 and phase 2")
	matches := []models.AgentMatch{
		{AgentID: "backend-developer", Confidence: 0.6},
		{AgentID: "devops-engineer", Confidence: 0.5},
		{AgentID: "qa-engineer", Confidence: 0.3},
	}
	a := models.ComplexityAssessment{Tier: models.ComplexityEpic, EstimatedHours: 120, Priority: models.PriorityMedium}

	plan := Decompose(a, matches, feats, reg)
	if len(plan) < 3 {
		t.Fatalf("plan has %d nodes, want >= 3", len(plan))
	}
	if err := VerifyPlan(plan); err != nil {
		t.Fatalf("plan is not a valid DAG: %v", err)
	}
	if len(plan[0].DependsOn) != 0 {
		t.Errorf("first node depends on %v, want nothing", plan[0].DependsOn)
	}

	// Every phase must be assigned: matches are non-empty.
	for _, node := range plan {
		if node.RecommendedAgentID == "" {
			t.Errorf("phase %q left unassigned", node.Title)
		}
		if node.EstimatedHours <= 0 {
			t.Errorf("phase %q has non-positive estimate", node.Title)
		}
	}

	// The validation phase overlaps qa-engineer's specialty even though qa
	// ranks last; specialty overlap beats overall rank.
	last := plan[len(plan)-1]
	if last.RecommendedAgentID != "qa-engineer" {
		t.Errorf("validation phase assigned to %s, want qa-engineer", last.RecommendedAgentID)
	}

	// Summed phase hours approximate the parent estimate.
	if total := PlanHours(plan); math.Abs(total-a.EstimatedHours) > a.EstimatedHours*0.1 {
		t.Errorf("plan hours %v too far from parent estimate %v", total, a.EstimatedHours)
	}
}

func TestDecomposeParallelPhases(t *testing.T) {
	reg := builtin(t)
	// The product-feature template marks frontend work parallel to backend.
	feats := features.Extract("Build the new dashboard feature with backend api and frontend ui")
	matches := []models.AgentMatch{
		{AgentID: "frontend-developer", Confidence: 0.5},
		{AgentID: "backend-developer", Confidence: 0.5},
	}

	plan := Decompose(complexAssessment(40), matches, feats, reg)
	if len(plan) != 4 {
		t.Fatalf("plan has %d nodes, want 4", len(plan))
	}
	if err := VerifyPlan(plan); err != nil {
		t.Fatalf("invalid plan: %v", err)
	}

	backend, frontend, qa := plan[1], plan[2], plan[3]
	if !reflect.DeepEqual(backend.DependsOn, frontend.DependsOn) {
		t.Errorf("parallel phases should share upstream deps: %v vs %v", backend.DependsOn, frontend.DependsOn)
	}
	wantJoin := []int{1, 2}
	if !reflect.DeepEqual(qa.DependsOn, wantJoin) {
		t.Errorf("join phase deps = %v, want %v", qa.DependsOn, wantJoin)
	}
}

func TestDecomposeGenericFallback(t *testing.T) {
	reg := builtin(t)
	// Vocabulary that matches no template triggers.
	feats := features.Extract("Rework the onboarding email cadence copy")
	matches := []models.AgentMatch{{AgentID: "tech-writer", Confidence: 0.2}}

	plan := Decompose(complexAssessment(36), matches, feats, reg)
	if len(plan) != 3 {
		t.Fatalf("generic fallback plan has %d nodes, want 3", len(plan))
	}
	titles := []string{plan[0].Title, plan[1].Title, plan[2].Title}
	want := []string{"Analysis", "Implementation", "Validation"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("fallback titles = %v, want %v", titles, want)
	}
	// With only one match, every phase falls back to it.
	for _, node := range plan {
		if node.RecommendedAgentID != "tech-writer" {
			t.Errorf("phase %q assigned to %s, want tech-writer", node.Title, node.RecommendedAgentID)
		}
	}
}

func TestDecomposeNoMatchesLeavesUnassigned(t *testing.T) {
	reg := builtin(t)
	feats := features.Extract("migrate monolith")

	plan := Decompose(complexAssessment(40), nil, feats, reg)
	if len(plan) == 0 {
		t.Fatal("expected a plan even with no matches")
	}
	for _, node := range plan {
		if node.RecommendedAgentID != "" {
			t.Errorf("phase %q assigned %s with no matches available", node.Title, node.RecommendedAgentID)
		}
	}
}

func TestDecomposeDeterministic(t *testing.T) {
	reg := builtin(t)
	feats := features.Extract("Build data pipeline and machine learning model")
	matches := []models.AgentMatch{
		{AgentID: "data-engineer", Confidence: 0.6},
		{AgentID: "ml-engineer", Confidence: 0.55},
	}
	a := Decompose(complexAssessment(48), matches, feats, reg)
	b := Decompose(complexAssessment(48), matches, feats, reg)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("decomposition not deterministic:\n%v\n%v", a, b)
	}
}

func TestVerifyPlanRejectsForwardDeps(t *testing.T) {
	plan := []models.SubtaskPlan{
		{SequenceIndex: 0, Title: "A", EstimatedHours: 1},
		{SequenceIndex: 1, Title: "B", EstimatedHours: 1, DependsOn: []int{1}},
	}
	if err := VerifyPlan(plan); err == nil {
		t.Error("self-dependency should fail verification")
	}

	plan[1].DependsOn = []int{2}
	if err := VerifyPlan(plan); err == nil {
		t.Error("forward dependency should fail verification")
	}
}
