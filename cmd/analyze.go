package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskgate/taskgate/internal/policy"
	"github.com/taskgate/taskgate/internal/telemetry"
	"github.com/taskgate/taskgate/internal/ui"
	"github.com/taskgate/taskgate/models"
	"github.com/taskgate/taskgate/types"
)

var (
	analyzeDesc        string
	analyzeAgent       string
	analyzeSkip        bool
	analyzeJSON        bool
	analyzeSave        bool
	analyzeInteractive bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <title>",
	Short: "Analyze a task: match agents, size it, plan subtasks",
	Long: `Analyze runs a free-text task through the intake pipeline and prints the
resulting routing matches, complexity assessment, subtask plan (for complex
and epic work), risk factors and success criteria.

Examples:
  taskgate analyze "Tune slow query on postgres index"
  taskgate analyze "Migrate monolith to microservices" -d "$(cat brief.md)"
  taskgate analyze "Fix login typo" --agent frontend-developer --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeDesc, "desc", "d", "", "task description")
	analyzeCmd.Flags().StringVar(&analyzeAgent, "agent", "", "force routing to this agent id")
	analyzeCmd.Flags().BoolVar(&analyzeSkip, "skip-analysis", false, "skip matching and return a trivial default")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the analysis as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist the analysis to the history store")
	analyzeCmd.Flags().BoolVarP(&analyzeInteractive, "interactive", "i", false, "pick the routed agent from the match list")
}

func runAnalyze(ctx context.Context, title string) error {
	eng, _, err := buildEngine()
	if err != nil {
		return err
	}

	tel := getTelemetryClient()
	defer func() { _ = tel.Close() }()

	req := models.TaskRequest{
		Title:        title,
		Description:  analyzeDesc,
		ForcedAgent:  analyzeAgent,
		SkipAnalysis: analyzeSkip,
	}

	started := time.Now()
	analysis, err := eng.Analyze(req)
	if err != nil {
		var unknown *types.UnknownAgentError
		if errors.As(err, &unknown) {
			return fmt.Errorf("%w (run 'taskgate agents' to list valid ids)", unknown)
		}
		return err
	}

	decision, err := evaluatePolicy(ctx, req, analysis)
	if err != nil {
		return err
	}

	event := telemetry.EventAnalyzeCompleted
	if decision != nil && decision.Result == policy.ResultDeny {
		event = telemetry.EventAnalyzeDenied
	}
	tel.Track(event, telemetry.Properties{
		"tier":        string(analysis.Assessment.Tier),
		"match_count": len(analysis.Matches),
		"plan_nodes":  len(analysis.Plan),
		"duration_ms": time.Since(started).Milliseconds(),
	})

	if analyzeJSON {
		out, err := json.MarshalIndent(struct {
			Analysis *models.TaskAnalysis `json:"analysis"`
			Policy   *policy.Decision     `json:"policy,omitempty"`
		}{analysis, decision}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		fmt.Print(ui.RenderAnalysis(analysis, eng.Snapshot().Profiles()))
		printDecision(decision)
	}

	if analyzeInteractive && !analyzeJSON && ui.IsInteractive() && len(analysis.Matches) > 1 {
		agentID, err := ui.PickMatch(analysis.Matches, eng.Snapshot().Profiles())
		if err == nil {
			fmt.Println(ui.StyleSuccess.Render("✔ routed to " + agentID))
		}
	}

	if analyzeSave {
		s, err := getAnalysisStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		record, err := s.SaveAnalysis(ctx, req, analysis)
		if err != nil {
			return fmt.Errorf("save analysis: %w", err)
		}
		fmt.Fprintln(os.Stderr, "saved as", record.ID)
	}

	return nil
}

// evaluatePolicy runs routing policies when a policy dir is configured.
func evaluatePolicy(ctx context.Context, req models.TaskRequest, analysis *models.TaskAnalysis) (*policy.Decision, error) {
	if GetConfig().Policy.Dir == "" {
		return nil, nil
	}
	pol, err := getPolicyEngine()
	if err != nil {
		return nil, err
	}
	if pol.Count() == 0 {
		return nil, nil
	}
	decision, err := pol.Evaluate(ctx, policy.BuildInput(req, analysis))
	if err != nil {
		return nil, fmt.Errorf("evaluate routing policies: %w", err)
	}
	return decision, nil
}

func printDecision(decision *policy.Decision) {
	if decision == nil {
		return
	}
	if decision.Result == policy.ResultDeny {
		fmt.Println()
		for _, v := range decision.Violations {
			fmt.Println(ui.StyleError.Render("✘ policy: " + v))
		}
	}
	for _, w := range decision.Warnings {
		fmt.Println(ui.StyleWarning.Render("⚠ policy: " + w))
	}
}
