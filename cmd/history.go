package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskgate/taskgate/internal/telemetry"
	"github.com/taskgate/taskgate/internal/ui"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved analyses, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getAnalysisStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		records, err := s.ListAnalyses(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("list analyses: %w", err)
		}

		tel := getTelemetryClient()
		defer func() { _ = tel.Close() }()
		tel.Track(telemetry.EventHistoryQueried, telemetry.Properties{"count": len(records)})

		if historyJSON {
			out, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		if len(records) == 0 {
			fmt.Println("no saved analyses yet; run 'taskgate analyze --save'")
			return nil
		}

		t := ui.Table{Headers: []string{"ID", "Created", "Tier", "Title"}, MaxWidth: 48}
		for _, r := range records {
			t.Rows = append(t.Rows, []string{
				r.ID[:8],
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				string(r.Analysis.Assessment.Tier),
				r.Title,
			})
		}
		fmt.Print(t.Render())
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getAnalysisStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		record, err := s.GetAnalysis(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get analysis %s: %w", args[0], err)
		}

		if historyJSON {
			out, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		eng, _, err := buildEngine()
		if err != nil {
			return err
		}
		fmt.Println(ui.StyleTitle.Render(record.Title))
		fmt.Println(ui.StyleSubtle.Render(record.CreatedAt.Local().Format("2006-01-02 15:04:05")))
		fmt.Println()
		fmt.Print(ui.RenderAnalysis(&record.Analysis, eng.Snapshot().Profiles()))
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one saved analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getAnalysisStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		if err := s.DeleteAnalysis(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete analysis %s: %w", args[0], err)
		}
		fmt.Println("deleted", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "emit records as JSON")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum records to list")
}
