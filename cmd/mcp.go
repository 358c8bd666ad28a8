package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskgate/taskgate/internal/engine"
	"github.com/taskgate/taskgate/internal/telemetry"
	"github.com/taskgate/taskgate/models"
	"github.com/taskgate/taskgate/types"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI tool integration",
	Long: `Start a Model Context Protocol (MCP) server so AI assistants can route
tasks through the intake engine.

The server runs over stdin/stdout and provides tools for:
- Analyzing a task (matching, sizing, decomposition)
- Listing the specialist agent catalog

Example usage:
  taskgate mcp

The server will run until the client disconnects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServer(ctx context.Context) error {
	eng, handle, err := buildEngine()
	if err != nil {
		return err
	}

	watcher, err := maybeWatchRegistry(handle)
	if err != nil {
		return err
	}
	if watcher != nil {
		defer func() { _ = watcher.Close() }()
	}

	tel := getTelemetryClient()
	defer func() { _ = tel.Close() }()
	tel.Track(telemetry.EventMCPStarted, nil)

	impl := &mcp.Implementation{
		Name:    "taskgate",
		Version: version,
	}
	server := mcp.NewServer(impl, &mcp.ServerOptions{})

	registerMCPTools(server, eng)

	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

func registerMCPTools(server *mcp.Server, eng *engine.Engine) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_task",
		Description: "Analyze a free-text task: match specialist agents with confidence scores, classify complexity (simple/moderate/complex/epic) with an hour estimate, and for large tasks produce a phased subtask plan with dependencies, risks and success criteria.",
	}, analyzeTaskHandler(eng))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_agents",
		Description: "List the specialist agent catalog with capability tiers and routing keywords. Optionally filter by tier.",
	}, listAgentsHandler(eng))
}

// AnalyzeTaskResponse is the structured payload of the analyze_task tool.
type AnalyzeTaskResponse struct {
	Analysis *models.TaskAnalysis `json:"analysis"`
}

// AgentListResponse is the structured payload of the list_agents tool.
type AgentListResponse struct {
	Agents []models.AgentProfile `json:"agents"`
	Count  int                   `json:"count"`
}

func analyzeTaskHandler(eng *engine.Engine) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[types.AnalyzeTaskParams]) (*mcp.CallToolResultFor[AnalyzeTaskResponse], error) {
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[types.AnalyzeTaskParams]) (*mcp.CallToolResultFor[AnalyzeTaskResponse], error) {
		args := params.Arguments
		logToolCall("analyze_task", args)

		analysis, err := eng.Analyze(models.TaskRequest{
			Title:        args.Title,
			Description:  args.Description,
			ForcedAgent:  args.Agent,
			SkipAnalysis: args.SkipAnalysis,
		})
		if err != nil {
			logError(err)
			return nil, err
		}

		summary := fmt.Sprintf("%s task, ~%.1fh, %d matches",
			analysis.Assessment.Tier, analysis.Assessment.EstimatedHours, len(analysis.Matches))
		if top := analysis.TopMatch(); top != nil {
			summary += fmt.Sprintf(", top: %s (%.2f)", top.AgentID, top.Confidence)
		}
		if len(analysis.Plan) > 0 {
			summary += fmt.Sprintf(", %d subtasks", len(analysis.Plan))
		}

		return &mcp.CallToolResultFor[AnalyzeTaskResponse]{
			Content: []mcp.Content{
				&mcp.TextContent{Text: summary},
			},
			StructuredContent: AnalyzeTaskResponse{Analysis: analysis},
		}, nil
	}
}

func listAgentsHandler(eng *engine.Engine) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[types.ListAgentsParams]) (*mcp.CallToolResultFor[AgentListResponse], error) {
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[types.ListAgentsParams]) (*mcp.CallToolResultFor[AgentListResponse], error) {
		args := params.Arguments
		logToolCall("list_agents", args)

		var agents []models.AgentProfile
		for _, p := range eng.Snapshot().Profiles() {
			if args.Tier != "" && string(p.Tier) != args.Tier {
				continue
			}
			agents = append(agents, p)
		}

		return &mcp.CallToolResultFor[AgentListResponse]{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("%d agents", len(agents))},
			},
			StructuredContent: AgentListResponse{Agents: agents, Count: len(agents)},
		}, nil
	}
}

func logError(err error) {
	if viper.GetBool("verbose") {
		log.Printf("[MCP ERROR] %v", err)
	}
}

func logToolCall(toolName string, params interface{}) {
	if viper.GetBool("verbose") {
		log.Printf("[MCP TOOL] %s called with params: %+v", toolName, params)
	}
}
