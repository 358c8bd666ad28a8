// Package engine assembles the full task analysis pipeline: feature
// extraction, agent matching, complexity classification, decomposition and
// risk/criteria generation. Analyze is the only public entry point; it either
// returns a complete TaskAnalysis or a single typed error, never partial
// output.
package engine

import (
	"strings"

	"github.com/taskgate/taskgate/internal/classify"
	"github.com/taskgate/taskgate/internal/features"
	"github.com/taskgate/taskgate/internal/matcher"
	"github.com/taskgate/taskgate/internal/planner"
	"github.com/taskgate/taskgate/internal/registry"
	"github.com/taskgate/taskgate/internal/risk"
	"github.com/taskgate/taskgate/models"
	"github.com/taskgate/taskgate/types"
)

// Engine runs analyses against the current registry snapshot. It is stateless
// per call and safe for concurrent use; the handle's snapshot swap is the only
// mutation anywhere in its lifetime.
type Engine struct {
	registry *registry.Handle
	cfg      types.EngineConfig
}

// New creates an engine over the registry handle.
func New(h *registry.Handle, cfg types.EngineConfig) *Engine {
	return &Engine{registry: h, cfg: cfg}
}

// Snapshot exposes the current catalog snapshot for collaborators that list
// or render agents. The engine itself takes one snapshot per Analyze call.
func (e *Engine) Snapshot() *registry.Registry {
	return e.registry.Snapshot()
}

// Config returns the engine's threshold configuration.
func (e *Engine) Config() types.EngineConfig {
	return e.cfg
}

// Analyze runs the full pipeline for one request. Results are immutable;
// callers needing a revised analysis submit a new request.
func (e *Engine) Analyze(req models.TaskRequest) (*models.TaskAnalysis, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, types.NewValidationError("title", "title must not be empty")
	}

	// One snapshot for the whole pipeline: a concurrent reload must never
	// give the matcher and the decomposer different catalogs.
	reg := e.registry.Snapshot()
	feats := features.Extract(req.Title + " " + req.Description)

	matches, err := matcher.Match(req, feats, reg, e.cfg)
	if err != nil {
		return nil, err
	}

	if req.SkipAnalysis {
		return skipResult(matches), nil
	}

	assessment := classify.Classify(req, feats, len(matches), e.cfg)
	plan := planner.Decompose(assessment, matches, feats, reg)
	risks, criteria := risk.Generate(assessment, matches, feats, reg, e.cfg)

	return &models.TaskAnalysis{
		Matches:         matches,
		Assessment:      assessment,
		Plan:            plan,
		RiskFactors:     risks,
		SuccessCriteria: criteria,
	}, nil
}

// skipResult is the trivial default for skip-analysis requests: no plan, the
// minimum SIMPLE estimate, and whatever match the forced-agent override
// produced (none otherwise).
func skipResult(matches []models.AgentMatch) *models.TaskAnalysis {
	lo, _ := models.ComplexitySimple.HourBand()
	return &models.TaskAnalysis{
		Matches: matches,
		Assessment: models.ComplexityAssessment{
			Tier:           models.ComplexitySimple,
			EstimatedHours: lo,
			Priority:       models.PriorityMedium,
		},
		SuccessCriteria: []string{"Acceptance checks pass and the change is reviewed"},
	}
}
