// Package matcher scores every registry profile against a task's extracted
// features and returns a ranked candidate list. Scoring is deterministic: the
// same request and catalog always produce the same matches in the same order.
package matcher

import (
	"sort"
	"strings"

	"github.com/taskgate/taskgate/internal/features"
	"github.com/taskgate/taskgate/internal/registry"
	"github.com/taskgate/taskgate/models"
	"github.com/taskgate/taskgate/types"
)

// Match ranks registry agents for the request. Agents with no keyword overlap
// are excluded outright, never padded in at zero confidence.
//
// A forced agent bypasses scoring entirely and comes back as a single
// confidence-1.0 match, or UnknownAgentError if the id is not registered.
// SkipAnalysis without a forced agent yields an empty list: the task is
// deliberately left unassigned.
func Match(req models.TaskRequest, feats features.TokenSet, reg *registry.Registry, cfg types.EngineConfig) ([]models.AgentMatch, error) {
	if req.ForcedAgent != "" {
		if _, ok := reg.Find(req.ForcedAgent); !ok {
			return nil, &types.UnknownAgentError{AgentID: req.ForcedAgent}
		}
		return []models.AgentMatch{{AgentID: req.ForcedAgent, Confidence: 1.0}}, nil
	}
	if req.SkipAnalysis {
		return nil, nil
	}

	var matches []models.AgentMatch
	for _, p := range reg.Profiles() {
		matched := matchedKeywords(p.Keywords, feats, reg)
		if len(matched) == 0 {
			continue
		}

		confidence := float64(len(matched)) / float64(max(1, len(p.Keywords)))
		if reg.Specific(matched[0]) {
			// matchedKeywords puts specific keywords first, so checking the
			// head is enough to know whether the bonus applies.
			confidence += cfg.SpecificityBonus
		}
		confidence = clamp01(confidence)

		matches = append(matches, models.AgentMatch{
			AgentID:         p.ID,
			Confidence:      confidence,
			MatchedKeywords: matched,
		})
	}

	// Profiles iterate in id order, so a stable sort on confidence plus the
	// tier tie-break leaves equal candidates ordered by id.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		ti, _ := reg.Find(matches[i].AgentID)
		tj, _ := reg.Find(matches[j].AgentID)
		return ti.Tier.Rank() > tj.Tier.Rank()
	})

	return matches, nil
}

// matchedKeywords collects the profile keywords present in the feature set,
// ordered most-specific first: registry-unique keywords ahead of shared ones,
// longer phrases ahead of single words, then lexicographic.
func matchedKeywords(keywords []string, feats features.TokenSet, reg *registry.Registry) []string {
	var matched []string
	for _, kw := range keywords {
		if feats.Has(kw) {
			matched = append(matched, kw)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := reg.Specific(matched[i]), reg.Specific(matched[j])
		if si != sj {
			return si
		}
		wi, wj := strings.Count(matched[i], " "), strings.Count(matched[j], " ")
		if wi != wj {
			return wi > wj
		}
		return matched[i] < matched[j]
	})
	return matched
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
