package classify

import (
	"strings"
	"testing"

	"github.com/taskgate/taskgate/internal/features"
	"github.com/taskgate/taskgate/models"
	"github.com/taskgate/taskgate/types"
)

var testConfig = types.EngineConfig{
	SpecificityBonus: 0.15,
	LowConfidence:    0.4,
	ModerateWords:    25,
	ComplexWords:     90,
	EpicWords:        220,
}

func classify(t *testing.T, req models.TaskRequest, matchCount int) models.ComplexityAssessment {
	t.Helper()
	feats := features.Extract(req.Title + " " + req.Description)
	a := classifyWith(req, feats, matchCount)
	lo, hi := a.Tier.HourBand()
	if a.EstimatedHours < lo || a.EstimatedHours > hi {
		t.Errorf("estimate %v outside %s band [%v,%v]", a.EstimatedHours, a.Tier, lo, hi)
	}
	return a
}

func classifyWith(req models.TaskRequest, feats features.TokenSet, matchCount int) models.ComplexityAssessment {
	return Classify(req, feats, matchCount, testConfig)
}

func TestTitleOnlyAlwaysSimple(t *testing.T) {
	// Even with several colliding agents, a terse title with no description
	// has too little signal for anything above SIMPLE.
	a := classify(t, models.TaskRequest{Title: "Update README"}, 0)
	if a.Tier != models.ComplexitySimple {
		t.Errorf("tier = %s, want simple", a.Tier)
	}
	if a.EstimatedHours < 2 || a.EstimatedHours > 4 {
		t.Errorf("estimate = %v, want within [2,4]", a.EstimatedHours)
	}

	b := classify(t, models.TaskRequest{Title: "Migrate platform architecture"}, 4)
	if b.Tier != models.ComplexitySimple {
		t.Errorf("title-only scale keywords still classified %s, want simple", b.Tier)
	}
}

func TestModerateFromTwoAgents(t *testing.T) {
	req := models.TaskRequest{
		Title:       "Add export endpoint",
		Description: "Expose a CSV export for the report view and document it.",
	}
	a := classify(t, req, 2)
	if a.Tier != models.ComplexityModerate {
		t.Errorf("tier = %s, want moderate", a.Tier)
	}
}

func TestComplexFromThreeAgents(t *testing.T) {
	req := models.TaskRequest{
		Title:       "Add billing export",
		Description: "Backend endpoint, frontend download button, and a regression test suite around it.",
	}
	a := classify(t, req, 3)
	if a.Tier != models.ComplexityComplex {
		t.Errorf("tier = %s, want complex", a.Tier)
	}
}

func TestComplexFromScaleKeyword(t *testing.T) {
	req := models.TaskRequest{
		Title:       "Introduce service platform",
		Description: "Stand up the shared platform service that the team agreed on last quarter.",
	}
	a := classify(t, req, 1)
	if a.Tier != models.ComplexityComplex {
		t.Errorf("tier = %s, want complex (one scale keyword)", a.Tier)
	}
}

func TestEpicFromPhasesAndScale(t *testing.T) {
	req := models.TaskRequest{
		Title: "Migrate monolith to microservices",
		Description: "Phase 1 carves out the billing service, phase 2 moves user accounts. " +
			strings.Repeat("The plan covers service boundaries, data ownership and rollout. ", 10),
	}
	a := classify(t, req, 3)
	if a.Tier != models.ComplexityEpic {
		t.Errorf("tier = %s, want epic", a.Tier)
	}
	if a.EstimatedHours < 80 {
		t.Errorf("epic estimate = %v, want >= 80", a.EstimatedHours)
	}
}

func TestEpicFromVeryLongDescription(t *testing.T) {
	req := models.TaskRequest{
		Title:       "Rebuild reporting",
		Description: strings.Repeat("detail ", 230),
	}
	a := classify(t, req, 1)
	if a.Tier != models.ComplexityEpic {
		t.Errorf("tier = %s, want epic for %d-word description", a.Tier, features.WordCount(req.Description))
	}
}

func TestPriorityKeywords(t *testing.T) {
	cases := []struct {
		text string
		want models.TaskPriority
	}{
		{"Fix checkout, production down since noon", models.PriorityUrgent},
		{"Customer outage in the EU region", models.PriorityUrgent},
		{"Critical regression in search ranking", models.PriorityHigh},
		{"Dark mode would be nice to have someday", models.PriorityLow},
		{"Refresh the onboarding copy", models.PriorityMedium},
	}
	for _, c := range cases {
		req := models.TaskRequest{Title: c.text, Description: "enough words here to avoid the title-only rule kicking in for this case"}
		a := classify(t, req, 1)
		if a.Priority != c.want {
			t.Errorf("%q priority = %s, want %s", c.text, a.Priority, c.want)
		}
	}
}

func TestHoursGrowWithDescriptionLength(t *testing.T) {
	short := classify(t, models.TaskRequest{
		Title:       "Tune cache",
		Description: strings.Repeat("word ", 30),
	}, 1)
	long := classify(t, models.TaskRequest{
		Title:       "Tune cache",
		Description: strings.Repeat("word ", 80),
	}, 1)
	if short.Tier != models.ComplexityModerate || long.Tier != models.ComplexityModerate {
		t.Fatalf("tiers = %s/%s, want moderate/moderate", short.Tier, long.Tier)
	}
	if long.EstimatedHours <= short.EstimatedHours {
		t.Errorf("hours should grow with description length: %v vs %v", short.EstimatedHours, long.EstimatedHours)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	req := models.TaskRequest{Title: "Migrate data platform", Description: strings.Repeat("scope ", 100)}
	feats := features.Extract(req.Title + " " + req.Description)
	a := classifyWith(req, feats, 2)
	b := classifyWith(req, feats, 2)
	if a != b {
		t.Errorf("classification not deterministic: %+v vs %+v", a, b)
	}
}
