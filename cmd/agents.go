package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskgate/taskgate/internal/telemetry"
	"github.com/taskgate/taskgate/internal/ui"
	"github.com/taskgate/taskgate/models"
)

var (
	agentsTier string
	agentsJSON bool
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the specialist agent catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := buildEngine()
		if err != nil {
			return err
		}

		var profiles []models.AgentProfile
		for _, p := range eng.Snapshot().Profiles() {
			if agentsTier != "" && string(p.Tier) != agentsTier {
				continue
			}
			profiles = append(profiles, p)
		}

		tel := getTelemetryClient()
		defer func() { _ = tel.Close() }()
		tel.Track(telemetry.EventAgentsListed, telemetry.Properties{"count": len(profiles)})

		if agentsJSON {
			out, err := json.MarshalIndent(profiles, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		if len(profiles) == 0 {
			fmt.Println("no agents match the filter")
			return nil
		}
		fmt.Print(ui.RenderAgentList(profiles))
		fmt.Printf("\n%d agents (catalog: %s)\n", len(profiles), eng.Snapshot().Source())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)

	agentsCmd.Flags().StringVar(&agentsTier, "tier", "", "filter by capability tier: light, standard, advanced")
	agentsCmd.Flags().BoolVar(&agentsJSON, "json", false, "emit the catalog as JSON")
}
