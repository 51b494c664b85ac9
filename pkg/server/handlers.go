package server

import (
	"encoding/json"
	"net/http"

	"github.com/kadirpekel/conductor"
	"github.com/kadirpekel/conductor/pkg/agent"
	"github.com/kadirpekel/conductor/pkg/config"
)

// runRequest is the body of POST /v1/workflows/run
type runRequest struct {
	Workflow config.WorkflowDefinition `json:"workflow"`
	Input    map[string]any            `json:"input,omitempty"`
}

// agentSummary is one entry of GET /v1/agents
type agentSummary struct {
	Type         string          `json:"type"`
	Description  string          `json:"description,omitempty"`
	InputSchema  json.RawMessage `json:"input_schema,omitempty"`
	OutputSchema json.RawMessage `json:"output_schema,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": conductor.Version,
	})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	registry := s.manager.Registry()

	summaries := make([]agentSummary, 0, registry.Count())
	for _, typ := range registry.Types() {
		d, err := registry.Resolve(typ)
		if err != nil {
			continue
		}
		summaries = append(summaries, agentSummary{
			Type:         d.Type,
			Description:  d.Description,
			InputSchema:  d.InputSchema,
			OutputSchema: d.OutputSchema,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": summaries})
}

func (s *Server) handleRunWorkflow(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.manager.RunWorkflow(r.Context(), &req.Workflow, req.Input)
	if err != nil {
		// Admission failures are client errors: the definition itself is
		// unexecutable.
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	var def config.WorkflowDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	def.SetDefaults()

	plan, err := s.manager.Registry().BuildExecutionOrder(&def)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	stats := plan.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":            true,
		"steps":            stats.Steps,
		"dependency_edges": stats.DependencyEdges,
		"order":            plan.Order,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Registry().Stats())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Kind:  agent.Classify(err),
	})
}
