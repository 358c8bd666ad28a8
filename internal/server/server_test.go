package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/taskgate/taskgate/internal/engine"
	"github.com/taskgate/taskgate/internal/policy"
	"github.com/taskgate/taskgate/internal/registry"
	"github.com/taskgate/taskgate/models"
	"github.com/taskgate/taskgate/store"
	"github.com/taskgate/taskgate/types"
)

var testConfig = types.EngineConfig{
	SpecificityBonus: 0.15,
	LowConfidence:    0.4,
	ModerateWords:    25,
	ComplexWords:     90,
	EpicWords:        220,
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	r, err := registry.Load(afero.NewMemMapFs(), "")
	if err != nil {
		t.Fatalf("Load builtin: %v", err)
	}
	eng := engine.New(registry.NewHandle(r), testConfig)
	return New(eng, 0, opts)
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := postJSON(t, s.Handler(), "/api/analyze", `{"title":"Tune slow query on postgres index"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Analysis == nil || len(resp.Analysis.Matches) == 0 {
		t.Fatalf("response = %+v, want matches", resp)
	}
	if resp.Analysis.Matches[0].AgentID != "database-optimizer" {
		t.Errorf("top match = %s, want database-optimizer", resp.Analysis.Matches[0].AgentID)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	s := newTestServer(t, Options{})

	cases := []struct {
		name string
		body string
		want int
	}{
		{"empty title", `{"title":"   "}`, http.StatusBadRequest},
		{"malformed json", `{"title":`, http.StatusBadRequest},
		{"unknown forced agent", `{"title":"x","forcedAgent":"nobody"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, s.Handler(), "/api/analyze", tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d; body %s", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

func TestAnalyzeWithPolicy(t *testing.T) {
	pol := policy.NewEngineWithPolicies([]policy.File{{
		Name: "routing",
		Path: "routing.rego",
		Content: `package taskgate.routing

import rego.v1

deny contains msg if {
	input.task.forced_agent == "ml-engineer"
	msg := "ml-engineer routing is restricted"
}
`,
	}})
	s := newTestServer(t, Options{Policy: pol})

	rec := postJSON(t, s.Handler(), "/api/analyze", `{"title":"Train a model","forcedAgent":"ml-engineer"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var resp AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Policy == nil || resp.Policy.Result != policy.ResultDeny {
		t.Errorf("policy decision = %+v, want deny", resp.Policy)
	}
}

func TestAnalyzeSaveAndHistory(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = st.Close() }()
	s := newTestServer(t, Options{Store: st})

	rec := postJSON(t, s.Handler(), "/api/analyze?save=true", `{"title":"Add export endpoint"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var resp AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.RecordID == "" {
		t.Fatal("save=true must return a record id")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/history/"+resp.RecordID, nil)
	getRec := httptest.NewRecorder()
	s.Handler().ServeHTTP(getRec, req)
	if getRec.Code != http.StatusOK {
		t.Fatalf("history get status = %d, want 200", getRec.Code)
	}
	var record store.AnalysisRecord
	if err := json.Unmarshal(getRec.Body.Bytes(), &record); err != nil {
		t.Fatal(err)
	}
	if record.Title != "Add export endpoint" {
		t.Errorf("record title = %q", record.Title)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	s := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without a store", rec.Code)
	}
}

func TestListAgents(t *testing.T) {
	s := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/agents?tier=advanced", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Agents []models.AgentProfile `json:"agents"`
		Count  int                   `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count == 0 {
		t.Fatal("want at least one advanced-tier agent")
	}
	for _, p := range resp.Agents {
		if p.Tier != models.TierAdvanced {
			t.Errorf("agent %s has tier %s, want advanced only", p.ID, p.Tier)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{Version: "test"})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %v, want ok", resp["status"])
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Options{Origins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow-origin = %q, want the allowed origin echoed", got)
	}

	preflight := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	preflight.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, preflight)
	if rec.Code != http.StatusForbidden {
		t.Errorf("preflight from unknown origin = %d, want 403", rec.Code)
	}
}
