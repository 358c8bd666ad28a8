package types

// MCP Tool Parameter Types

// AnalyzeTaskParams for analyzing a task through the intake engine
type AnalyzeTaskParams struct {
	Title        string `json:"title" mcp:"Task title (required)"`
	Description  string `json:"description,omitempty" mcp:"Free-text task description"`
	Agent        string `json:"agent,omitempty" mcp:"Force routing to this agent id, bypassing matching"`
	SkipAnalysis bool   `json:"skipAnalysis,omitempty" mcp:"Skip matching and return a trivial default analysis"`
}

// ListAgentsParams for listing the specialist agent catalog
type ListAgentsParams struct {
	Tier string `json:"tier,omitempty" mcp:"Filter by capability tier: light, standard, advanced"`
}
