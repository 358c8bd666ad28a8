package telemetry

// Event names. Properties never include task titles or descriptions.
const (
	EventAnalyzeCompleted = "analyze_completed"
	EventAnalyzeDenied    = "analyze_denied"
	EventAgentsListed     = "agents_listed"
	EventServeStarted     = "serve_started"
	EventMCPStarted       = "mcp_started"
	EventHistoryQueried   = "history_queried"
)
