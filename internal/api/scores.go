package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/alerts"
	"github.com/vitalgraph/vitalgraph/internal/causal"
	"github.com/vitalgraph/vitalgraph/internal/debt"
)

// handleDebtScores computes all three windowed debt scores.
func (s *Server) handleDebtScores(w http.ResponseWriter, r *http.Request) {
	from, to, err := timeRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	metabolic, err := s.engine.MetabolicDebt(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	digital, err := s.engine.DigitalDebt(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	somatic, err := s.engine.SomaticStress(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, []debt.Score{metabolic, digital, somatic})
}

// classifyRequest carries hypothesis proposals and tool observations.
type classifyRequest struct {
	Hypotheses   []causal.Hypothesis  `json:"hypotheses"`
	Observations []causal.Observation `json:"observations"`
}

func (s *Server) handleClassifyDebt(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid classify payload")
		return
	}

	ranked := causal.ClassifyDebt(req.Hypotheses, req.Observations)
	respondJSON(w, http.StatusOK, orEmpty(ranked))
}

// escalationRequest proposes a causal explanation for the gate.
type escalationRequest struct {
	Explanation causal.Explanation `json:"explanation"`
	From        time.Time          `json:"from"`
	To          time.Time          `json:"to"`
}

func (s *Server) handleEscalationCheck(w http.ResponseWriter, r *http.Request) {
	var req escalationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid escalation payload")
		return
	}
	if req.To.IsZero() {
		req.To = time.Now().UTC()
	}
	if req.From.IsZero() {
		req.From = req.To.Add(-4 * time.Hour)
	}

	decision := s.gate.ShouldEscalate(r.Context(), req.Explanation, req.From, req.To)

	if decision.Escalate && s.alertService != nil {
		if _, err := s.alertService.Raise(r.Context(), req.Explanation, decision); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	respondJSON(w, http.StatusOK, decision)
}

func (s *Server) handleRecentAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	if s.alertService == nil {
		respondJSON(w, http.StatusOK, []alerts.Alert{})
		return
	}

	recent, err := s.alertService.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, orEmpty(recent))
}
