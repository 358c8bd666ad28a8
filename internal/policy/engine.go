// Package policy evaluates operator-supplied Rego rules against assembled
// analyses. Policies let an operator veto routing decisions ("never send
// database work to a light-tier agent") or attach advisory warnings without
// touching engine code. Evaluation is local; no network calls.
package policy

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/spf13/afero"

	"github.com/taskgate/taskgate/models"
)

// DefaultPackage is the Rego package queried for deny and warn rules.
const DefaultPackage = "taskgate.routing"

// Result of a policy evaluation.
type Result string

const (
	ResultAllow Result = "allow"
	ResultDeny  Result = "deny"
)

// Decision is the outcome of evaluating all loaded policies against one
// analysis. Violations block routing; warnings are advisory.
type Decision struct {
	DecisionID  string    `json:"decisionId"`
	Result      Result    `json:"result"`
	Violations  []string  `json:"violations,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// File is one loaded .rego policy.
type File struct {
	Name    string
	Path    string
	Content string
}

// Input is the document policies see as `input`.
type Input struct {
	Task struct {
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		ForcedAgent string `json:"forced_agent,omitempty"`
	} `json:"task"`
	Analysis *models.TaskAnalysis `json:"analysis"`
}

// BuildInput assembles the policy input document for one analysis.
func BuildInput(req models.TaskRequest, analysis *models.TaskAnalysis) *Input {
	in := &Input{Analysis: analysis}
	in.Task.Title = req.Title
	in.Task.Description = req.Description
	in.Task.ForcedAgent = req.ForcedAgent
	return in
}

// Engine holds loaded policies and evaluates them on demand.
type Engine struct {
	policies []File
	pkg      string
}

// NewEngine loads every .rego file from dir. A missing or empty directory is
// not an error: no policies means every decision is allowed.
func NewEngine(fs afero.Fs, dir string) (*Engine, error) {
	e := &Engine{pkg: DefaultPackage}
	if dir == "" {
		return e, nil
	}

	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("check policy dir: %w", err)
	}
	if !exists {
		return e, nil
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("read policy dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".rego") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("read policy %s: %w", path, err)
		}
		e.policies = append(e.policies, File{
			Name:    strings.TrimSuffix(entry.Name(), ".rego"),
			Path:    path,
			Content: string(content),
		})
	}
	sort.Slice(e.policies, func(i, j int) bool { return e.policies[i].Name < e.policies[j].Name })
	return e, nil
}

// NewEngineWithPolicies creates an engine from in-memory policies, used by
// tests and embedders.
func NewEngineWithPolicies(policies []File) *Engine {
	return &Engine{policies: policies, pkg: DefaultPackage}
}

// Count returns the number of loaded policies.
func (e *Engine) Count() int {
	return len(e.policies)
}

// Evaluate runs all loaded policies against the input. Strings produced by
// `deny` rules become violations; strings from `warn` rules become warnings.
func (e *Engine) Evaluate(ctx context.Context, input any) (*Decision, error) {
	decision := &Decision{
		DecisionID:  uuid.New().String(),
		Result:      ResultAllow,
		EvaluatedAt: time.Now().UTC(),
	}
	if len(e.policies) == 0 {
		return decision, nil
	}

	modules := make([]func(*rego.Rego), len(e.policies))
	for i, p := range e.policies {
		modules[i] = rego.Module(p.Path, p.Content)
	}

	violations, err := e.querySet(ctx, input, "deny", modules)
	if err != nil {
		return nil, fmt.Errorf("query deny rules: %w", err)
	}
	warnings, err := e.querySet(ctx, input, "warn", modules)
	if err != nil {
		// warn rules are optional
		warnings = nil
	}

	if len(violations) > 0 {
		decision.Result = ResultDeny
		decision.Violations = violations
	}
	decision.Warnings = warnings
	return decision, nil
}

// querySet evaluates a set-valued rule and collects its string members.
func (e *Engine) querySet(ctx context.Context, input any, ruleName string, modules []func(*rego.Rego)) ([]string, error) {
	opts := []func(*rego.Rego){
		rego.Query(fmt.Sprintf("data.%s.%s", e.pkg, ruleName)),
		rego.Input(input),
	}
	opts = append(opts, modules...)

	rs, err := rego.New(opts...).Eval(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "undefined") {
			return nil, nil
		}
		return nil, err
	}

	var results []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			set, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, item := range set {
				if s, ok := item.(string); ok {
					results = append(results, s)
				}
			}
		}
	}
	sort.Strings(results)
	return results, nil
}
