// Package ui renders analyses and agent catalogs for the terminal, and hosts
// the interactive match picker.
package ui

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/taskgate/taskgate/models"
)

const fallbackWidth = 100

// IsInteractive reports whether stdout is attached to a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallbackWidth
}

// TierBadge renders a colored complexity label.
func TierBadge(tier models.ComplexityTier) string {
	label := strings.ToUpper(string(tier))
	switch tier {
	case models.ComplexitySimple:
		return styleBadgeSimple.Render(label)
	case models.ComplexityModerate:
		return styleBadgeModerate.Render(label)
	case models.ComplexityComplex:
		return styleBadgeComplex.Render(label)
	case models.ComplexityEpic:
		return styleBadgeEpic.Render(label)
	default:
		return label
	}
}

// RenderAnalysis formats a full analysis for terminal display. Display names
// come from profiles; unknown agent ids fall back to the raw id.
func RenderAnalysis(a *models.TaskAnalysis, profiles []models.AgentProfile) string {
	names := displayNames(profiles)
	width := terminalWidth()

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s  %s  %s\n\n",
		TierBadge(a.Assessment.Tier),
		StyleTitle.Render(fmt.Sprintf("~%.1fh", a.Assessment.EstimatedHours)),
		StyleSubtle.Render("priority: "+string(a.Assessment.Priority)),
	))

	sb.WriteString(StyleSectionTitle.Render("Matches") + "\n")
	if len(a.Matches) == 0 {
		sb.WriteString(StyleSubtle.Render(" no specialist matched; manual triage needed") + "\n")
	} else {
		t := Table{
			Headers:  []string{"Agent", "Confidence", "Matched"},
			MaxWidth: width / 3,
		}
		for _, m := range a.Matches {
			t.Rows = append(t.Rows, []string{
				names.of(m.AgentID),
				fmt.Sprintf("%.2f", m.Confidence),
				strings.Join(m.MatchedKeywords, ", "),
			})
		}
		sb.WriteString(t.Render())
	}

	if len(a.Plan) > 0 {
		sb.WriteString("\n" + StyleSectionTitle.Render("Plan") + "\n")
		sb.WriteString(renderPlan(a.Plan, names))
	}

	if len(a.RiskFactors) > 0 {
		sb.WriteString("\n" + StyleSectionTitle.Render("Risks") + "\n")
		for _, r := range a.RiskFactors {
			sb.WriteString(StyleWarning.Render(" ⚠ ") + wrap(r, width-4) + "\n")
		}
	}

	if len(a.SuccessCriteria) > 0 {
		sb.WriteString("\n" + StyleSectionTitle.Render("Success criteria") + "\n")
		for _, c := range a.SuccessCriteria {
			sb.WriteString(StyleSuccess.Render(" ✓ ") + wrap(c, width-4) + "\n")
		}
	}

	return sb.String()
}

func renderPlan(plan []models.SubtaskPlan, names nameIndex) string {
	var sb strings.Builder
	for i, node := range plan {
		branch := "├─"
		if i == len(plan)-1 {
			branch = "└─"
		}
		line := fmt.Sprintf(" %s %d. %s", StyleSubtle.Render(branch), node.SequenceIndex+1, StyleTitle.Render(node.Title))
		line += StyleSubtle.Render(fmt.Sprintf("  %.1fh", node.EstimatedHours))
		if node.RecommendedAgentID != "" {
			line += StylePrimary.Render("  → " + names.of(node.RecommendedAgentID))
		}
		if len(node.DependsOn) > 0 {
			deps := make([]string, len(node.DependsOn))
			for j, d := range node.DependsOn {
				deps[j] = fmt.Sprintf("%d", d+1)
			}
			line += StyleSubtle.Render("  (after " + strings.Join(deps, ", ") + ")")
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// RenderAgentList formats the agent catalog as a table, sorted by id.
func RenderAgentList(profiles []models.AgentProfile) string {
	sorted := make([]models.AgentProfile, len(profiles))
	copy(sorted, profiles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	t := Table{Headers: []string{"ID", "Name", "Tier", "Keywords"}, MaxWidth: 48}
	for _, p := range sorted {
		t.Rows = append(t.Rows, []string{
			p.ID,
			p.DisplayName,
			string(p.Tier),
			strings.Join(p.Keywords, ", "),
		})
	}
	return t.Render()
}

type nameIndex map[string]string

func displayNames(profiles []models.AgentProfile) nameIndex {
	names := make(nameIndex, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.DisplayName
	}
	return names
}

func (n nameIndex) of(id string) string {
	if name, ok := n[id]; ok {
		return name
	}
	return id
}

func wrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}
	words := strings.Fields(text)
	var sb strings.Builder
	line := ""
	for _, word := range words {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			sb.WriteString(line + "\n   ")
			line = word
		}
	}
	sb.WriteString(line)
	return sb.String()
}
