package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// ingestStatus maps the error taxonomy to HTTP codes: malformed producer
// input is the caller's fault, persistence failures are ours.
func ingestStatus(err error) int {
	if errors.Is(err, core.ErrMalformedInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleIngestSample(w http.ResponseWriter, r *http.Request) {
	var sample core.PhysiologicalSample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		respondError(w, http.StatusBadRequest, "invalid sample payload")
		return
	}

	sample, err := s.store.IngestSample(r.Context(), sample)
	if err != nil {
		respondError(w, ingestStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, sample)
}

func (s *Server) handleIngestGlucose(w http.ResponseWriter, r *http.Request) {
	var batch []core.GlucoseReading
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid glucose payload")
		return
	}

	readings, err := s.store.IngestGlucoseBatch(r.Context(), batch)
	if err != nil {
		respondError(w, ingestStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, readings)
}

func (s *Server) handleIngestBehavior(w http.ResponseWriter, r *http.Request) {
	var event core.BehavioralEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid behavior payload")
		return
	}

	event, err := s.store.IngestBehavior(r.Context(), event)
	if err != nil {
		respondError(w, ingestStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

func (s *Server) handleIngestMeal(w http.ResponseWriter, r *http.Request) {
	var meal core.MealEvent
	if err := json.NewDecoder(r.Body).Decode(&meal); err != nil {
		respondError(w, http.StatusBadRequest, "invalid meal payload")
		return
	}

	meal, err := s.store.IngestMeal(r.Context(), meal)
	if err != nil {
		respondError(w, ingestStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, meal)
}

func (s *Server) handleIngestEnvironment(w http.ResponseWriter, r *http.Request) {
	var cond core.EnvironmentalCondition
	if err := json.NewDecoder(r.Body).Decode(&cond); err != nil {
		respondError(w, http.StatusBadRequest, "invalid environment payload")
		return
	}

	cond, err := s.store.IngestEnvironment(r.Context(), cond)
	if err != nil {
		respondError(w, ingestStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, cond)
}

func (s *Server) handleAddEdge(w http.ResponseWriter, r *http.Request) {
	var edge core.CausalEdge
	if err := json.NewDecoder(r.Body).Decode(&edge); err != nil {
		respondError(w, http.StatusBadRequest, "invalid edge payload")
		return
	}

	edge, err := s.store.AddEdge(r.Context(), edge)
	if err != nil {
		respondError(w, ingestStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, edge)
}

func (s *Server) handleUpsertPattern(w http.ResponseWriter, r *http.Request) {
	var pattern core.CausalPattern
	if err := json.NewDecoder(r.Body).Decode(&pattern); err != nil {
		respondError(w, http.StatusBadRequest, "invalid pattern payload")
		return
	}

	pattern, err := s.store.UpsertPattern(r.Context(), pattern)
	if err != nil {
		respondError(w, ingestStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, pattern)
}
