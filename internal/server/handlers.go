package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/taskgate/taskgate/internal/policy"
	"github.com/taskgate/taskgate/models"
	"github.com/taskgate/taskgate/types"
)

// AnalyzeResponse carries the analysis plus the routing-policy decision when
// a policy engine is configured.
type AnalyzeResponse struct {
	Analysis *models.TaskAnalysis `json:"analysis"`
	Policy   *policy.Decision     `json:"policy,omitempty"`
	RecordID string               `json:"recordId,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req models.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := s.engine.Analyze(req)
	if err != nil {
		var verr *types.ValidationError
		var unknown *types.UnknownAgentError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.As(err, &unknown):
			writeError(w, http.StatusUnprocessableEntity, unknown.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	resp := AnalyzeResponse{Analysis: analysis}

	if s.policy != nil && s.policy.Count() > 0 {
		decision, err := s.policy.Evaluate(r.Context(), policy.BuildInput(req, analysis))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "policy evaluation failed: "+err.Error())
			return
		}
		resp.Policy = decision
	}

	if r.URL.Query().Get("save") == "true" {
		if s.store == nil {
			writeError(w, http.StatusServiceUnavailable, "history store not configured")
			return
		}
		record, err := s.store.SaveAnalysis(r.Context(), req, analysis)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "save analysis: "+err.Error())
			return
		}
		resp.RecordID = record.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	tierFilter := r.URL.Query().Get("tier")

	var profiles []models.AgentProfile
	for _, p := range s.engine.Snapshot().Profiles() {
		if tierFilter != "" && string(p.Tier) != tierFilter {
			continue
		}
		profiles = append(profiles, p)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"agents": profiles,
		"count":  len(profiles),
	})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	records, err := s.store.ListAnalyses(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	id := r.PathValue("id")
	record, err := s.store.GetAnalysis(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"agents":  s.engine.Snapshot().Len(),
	})
}
