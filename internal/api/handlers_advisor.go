package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lumina-dashboard/internal/types"
)

// handleListMessages handles GET /api/advisor/messages - Chat history
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": s.session.Advisor.Messages(),
	})
}

// handleClearMessages handles DELETE /api/advisor/messages - Reset to the greeting
func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	s.session.Advisor.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// handleChat handles POST /api/advisor/chat - Ask a free-form question
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondInvalidBody(w, err)
		return
	}

	reply, err := s.session.Advisor.Chat(r.Context(), req.Text)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

// handleQuickAction handles POST /api/advisor/actions/{action} - Canned request
func (s *Server) handleQuickAction(w http.ResponseWriter, r *http.Request) {
	action := types.QuickAction(mux.Vars(r)["action"])

	reply, err := s.session.Advisor.QuickAction(r.Context(), action)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

// handleBrief handles GET /api/advisor/brief - Morning brief
func (s *Server) handleBrief(w http.ResponseWriter, r *http.Request) {
	text, err := s.session.Advisor.Brief(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

// handleAnalyzeAsset handles GET /api/advisor/assets/{id}/analysis
func (s *Server) handleAnalyzeAsset(w http.ResponseWriter, r *http.Request) {
	text, err := s.session.Advisor.AnalyzeAsset(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

// handleRebalance handles GET /api/advisor/rebalance - One rebalancing suggestion
func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	text, err := s.session.Advisor.Rebalance(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

// handleAnalyzeHistory handles GET /api/advisor/history - Trading-pattern insight
func (s *Server) handleAnalyzeHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"text": s.session.Advisor.AnalyzeHistory(r.Context()),
	})
}
