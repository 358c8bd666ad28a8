// Package classify maps a task's textual signals to a complexity tier, an
// hour estimate inside that tier's canonical band, and a priority.
package classify

import (
	"math"
	"strings"

	"github.com/taskgate/taskgate/internal/features"
	"github.com/taskgate/taskgate/models"
	"github.com/taskgate/taskgate/types"
)

// scaleKeywords signal organization-wide scope regardless of text length.
var scaleKeywords = []string{
	"migrate", "migration", "platform", "architecture", "enterprise",
	"replatform", "overhaul", "monolith", "microservices",
}

// phasePhrases mark explicit multi-phase language, an EPIC trigger on its own.
var phasePhrases = []string{
	"phase 1", "phase 2", "phase 3", "milestone", "multi phase", "roadmap",
}

var urgentPhrases = []string{"urgent", "outage", "production down", "emergency", "sev 1"}
var highPhrases = []string{"critical", "asap", "blocker", "blocking", "high priority"}
var lowPhrases = []string{"nice to have", "someday", "eventually", "backlog", "low priority"}

// terseTitleWords bounds the title length for the title-only short circuit:
// with no description and a title this short there is not enough signal to
// justify anything above SIMPLE.
const terseTitleWords = 8

// Classify derives the complexity assessment from the request text, the
// extracted features and the number of distinct matched agents. It is a total
// function: every syntactically valid request classifies.
func Classify(req models.TaskRequest, feats features.TokenSet, matchCount int, cfg types.EngineConfig) models.ComplexityAssessment {
	norm := features.Normalize(req.Title + " " + req.Description)
	priority := derivePriority(norm)

	wc := features.WordCount(req.Description)
	scaleHits := countScaleKeywords(feats)
	multiPhase := containsAny(norm, phasePhrases)

	// Title-only requests classify SIMPLE no matter how many agents collide
	// on the title's keywords: a terse title is not a specification.
	if strings.TrimSpace(req.Description) == "" && features.WordCount(req.Title) <= terseTitleWords {
		return models.ComplexityAssessment{
			Tier:           models.ComplexitySimple,
			EstimatedHours: simpleHours(0, cfg),
			Priority:       priority,
		}
	}

	var tier models.ComplexityTier
	switch {
	case wc >= cfg.EpicWords || scaleHits >= 2 || multiPhase:
		tier = models.ComplexityEpic
	case wc >= cfg.ComplexWords || matchCount >= 3 || scaleHits == 1:
		tier = models.ComplexityComplex
	case wc >= cfg.ModerateWords || matchCount == 2:
		tier = models.ComplexityModerate
	default:
		tier = models.ComplexitySimple
	}

	return models.ComplexityAssessment{
		Tier:           tier,
		EstimatedHours: estimateHours(tier, wc, matchCount, scaleHits, multiPhase, cfg),
		Priority:       priority,
	}
}

// estimateHours interpolates a continuous estimate inside the tier band from
// the same signals that picked the tier. Stronger signal, higher estimate;
// the result never leaves the band.
func estimateHours(tier models.ComplexityTier, wc, matchCount, scaleHits int, multiPhase bool, cfg types.EngineConfig) float64 {
	lo, hi := tier.HourBand()
	var strength float64

	switch tier {
	case models.ComplexitySimple:
		return simpleHours(wc, cfg)
	case models.ComplexityModerate:
		strength = progress(wc, cfg.ModerateWords, cfg.ComplexWords)
		if matchCount >= 2 {
			strength += 0.25
		}
	case models.ComplexityComplex:
		strength = progress(wc, cfg.ComplexWords, cfg.EpicWords)
		strength += 0.1 * float64(min(matchCount, 3))
		if scaleHits >= 1 {
			strength += 0.2
		}
	case models.ComplexityEpic:
		strength = progress(wc, cfg.EpicWords, 2*cfg.EpicWords)
		strength += 0.25 * float64(min(scaleHits, 2))
		if multiPhase {
			strength += 0.25
		}
	}

	return roundHalf(lo + (hi-lo)*clamp01(strength))
}

func simpleHours(wc int, cfg types.EngineConfig) float64 {
	lo, hi := models.ComplexitySimple.HourBand()
	strength := clamp01(float64(wc) / float64(cfg.ModerateWords))
	return roundHalf(lo + (hi-lo)*strength)
}

// derivePriority scans the normalized text for urgency wording. Deferral
// wording only lowers priority when nothing urgent appears; MEDIUM otherwise.
func derivePriority(norm string) models.TaskPriority {
	switch {
	case containsAny(norm, urgentPhrases):
		return models.PriorityUrgent
	case containsAny(norm, highPhrases):
		return models.PriorityHigh
	case containsAny(norm, lowPhrases):
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}

func countScaleKeywords(feats features.TokenSet) int {
	n := 0
	for _, kw := range scaleKeywords {
		if feats.Has(kw) {
			n++
		}
	}
	return n
}

// containsAny does whole-word phrase search on space-normalized text.
func containsAny(norm string, phrases []string) bool {
	padded := " " + norm + " "
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// progress maps v into [0,1] across the [from,to) interval.
func progress(v, from, to int) float64 {
	if to <= from {
		return 0
	}
	return clamp01(float64(v-from) / float64(to-from))
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

func roundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}
