package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CapabilityTier ranks an agent's cost/latency class. Higher tiers win
// tie-breaks during matching.
type CapabilityTier string

const (
	TierLight    CapabilityTier = "light"
	TierStandard CapabilityTier = "standard"
	TierAdvanced CapabilityTier = "advanced"
)

// Rank returns the ordinal position of the tier, with unknown tiers lowest.
func (t CapabilityTier) Rank() int {
	switch t {
	case TierLight:
		return 1
	case TierStandard:
		return 2
	case TierAdvanced:
		return 3
	default:
		return 0
	}
}

// Valid returns true if the tier is a known value.
func (t CapabilityTier) Valid() bool {
	return t.Rank() > 0
}

// ComplexityTier classifies how large a unit of work is.
type ComplexityTier string

const (
	ComplexitySimple   ComplexityTier = "simple"
	ComplexityModerate ComplexityTier = "moderate"
	ComplexityComplex  ComplexityTier = "complex"
	ComplexityEpic     ComplexityTier = "epic"
)

// Valid returns true if the tier is a known value.
func (t ComplexityTier) Valid() bool {
	switch t {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityEpic:
		return true
	default:
		return false
	}
}

// Decomposable reports whether tasks of this tier are split into subtask plans.
// SIMPLE and MODERATE tasks are never decomposed.
func (t ComplexityTier) Decomposable() bool {
	return t == ComplexityComplex || t == ComplexityEpic
}

// HourBand returns the canonical estimate band for the tier. EPIC is
// open-ended upward; its Max is the interpolation ceiling, not a hard cap.
func (t ComplexityTier) HourBand() (min, max float64) {
	switch t {
	case ComplexitySimple:
		return 2, 4
	case ComplexityModerate:
		return 8, 16
	case ComplexityComplex:
		return 32, 60
	case ComplexityEpic:
		return 80, 160
	default:
		return 0, 0
	}
}

// TaskPriority represents the urgency of a task, derived independently of its
// complexity tier.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Valid returns true if the priority is a known value.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// AgentProfile is one specialist capability record in the registry.
// Profiles are loaded once at startup and never mutated per request.
type AgentProfile struct {
	ID          string         `json:"id" yaml:"id" validate:"required"`
	DisplayName string         `json:"displayName" yaml:"display_name" validate:"required"`
	Keywords    []string       `json:"keywords" yaml:"keywords" validate:"required,min=1,dive,min=1"`
	Tier        CapabilityTier `json:"tier" yaml:"tier" validate:"required,oneof=light standard advanced"`
	// HourlyRate is used for cost estimates only; zero means unpriced.
	HourlyRate float64 `json:"hourlyRate,omitempty" yaml:"hourly_rate,omitempty" validate:"min=0"`
	// SuccessCriterion, when set, is added to the analysis acceptance
	// criteria whenever this agent is matched.
	SuccessCriterion string `json:"successCriterion,omitempty" yaml:"success_criterion,omitempty"`
}

// TaskRequest is the engine input. It lives for one Analyze call and is never
// persisted by the engine itself.
type TaskRequest struct {
	Title       string `json:"title" validate:"required,min=1"`
	Description string `json:"description,omitempty"`
	// ForcedAgent bypasses matching and routes directly to the named agent.
	ForcedAgent string `json:"forcedAgent,omitempty"`
	// SkipAnalysis short-circuits the pipeline to a trivial default result.
	SkipAnalysis bool `json:"skipAnalysis,omitempty"`
}

// AgentMatch is one scored routing candidate.
type AgentMatch struct {
	AgentID    string  `json:"agentId" validate:"required"`
	Confidence float64 `json:"confidence" validate:"min=0,max=1"`
	// MatchedKeywords is ordered most-specific first.
	MatchedKeywords []string `json:"matchedKeywords,omitempty"`
}

// ComplexityAssessment is the classifier output. EstimatedHours always falls
// inside the band of Tier.
type ComplexityAssessment struct {
	Tier           ComplexityTier `json:"tier" validate:"required,oneof=simple moderate complex epic"`
	EstimatedHours float64        `json:"estimatedHours" validate:"gt=0"`
	Priority       TaskPriority   `json:"priority" validate:"required,oneof=low medium high urgent"`
}

// SubtaskPlan is one node of a decomposition. DependsOn holds sequence
// indices strictly less than the node's own index, so a well-formed plan is
// acyclic by construction.
type SubtaskPlan struct {
	SequenceIndex      int     `json:"sequenceIndex" validate:"min=0"`
	Title              string  `json:"title" validate:"required"`
	RecommendedAgentID string  `json:"recommendedAgentId,omitempty"`
	EstimatedHours     float64 `json:"estimatedHours" validate:"gt=0"`
	DependsOn          []int   `json:"dependsOn,omitempty"`
}

// TaskAnalysis is the assembled, immutable engine result. Callers that need a
// revised analysis request a new one; results are never mutated in place.
type TaskAnalysis struct {
	Matches         []AgentMatch         `json:"matches,omitempty"`
	Assessment      ComplexityAssessment `json:"assessment"`
	Plan            []SubtaskPlan        `json:"plan,omitempty"`
	RiskFactors     []string             `json:"riskFactors,omitempty"`
	SuccessCriteria []string             `json:"successCriteria,omitempty"`
}

// TopMatch returns the best-ranked match, or nil when the task is unassigned.
func (a *TaskAnalysis) TopMatch() *AgentMatch {
	if len(a.Matches) == 0 {
		return nil
	}
	return &a.Matches[0]
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct that has validation tags.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, e := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
