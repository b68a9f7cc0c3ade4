package server

import "net/http"

// handleAgents handles GET /api/agents, listing the available coaching
// personas for UI pickers.
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, agentListResponse{Agents: s.agents.List()})
}
