package api

import (
	"net/http"
	"strconv"

	"github.com/vitalgraph/vitalgraph/internal/causal"
	"github.com/vitalgraph/vitalgraph/internal/core"
)

func (s *Server) handleQuerySamples(w http.ResponseWriter, r *http.Request) {
	metric := core.MetricType(r.URL.Query().Get("metric"))
	if metric == "" {
		respondError(w, http.StatusBadRequest, "metric parameter required")
		return
	}

	from, to, err := timeRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	samples, err := s.store.QuerySamples(r.Context(), metric, from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, orEmpty(samples))
}

func (s *Server) handleQueryGlucose(w http.ResponseWriter, r *http.Request) {
	from, to, err := timeRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	readings, err := s.store.QueryGlucose(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, orEmpty(readings))
}

func (s *Server) handleQueryMeals(w http.ResponseWriter, r *http.Request) {
	from, to, err := timeRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	meals, err := s.store.QueryMeals(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, orEmpty(meals))
}

func (s *Server) handleQueryBehaviors(w http.ResponseWriter, r *http.Request) {
	from, to, err := timeRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := s.store.QueryBehaviors(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, orEmpty(events))
}

func (s *Server) handleQueryEnvironment(w http.ResponseWriter, r *http.Request) {
	from, to, err := timeRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conditions, err := s.store.QueryEnvironment(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, orEmpty(conditions))
}

func (s *Server) handleQueryEdges(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		respondError(w, http.StatusBadRequest, "source parameter required")
		return
	}

	edges, err := s.store.QueryEdges(r.Context(), source)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, orEmpty(edges))
}

type tracedPath struct {
	Edges    []core.CausalEdge `json:"edges"`
	Strength float64           `json:"strength"`
}

// handleTracePaths rebuilds the causal DAG from persisted edges and returns
// every path from source to target with its path strength. Edges that
// violate the causal constraints are left out of the rebuilt graph.
func (s *Server) handleTracePaths(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	target := r.URL.Query().Get("target")
	if source == "" || target == "" {
		respondError(w, http.StatusBadRequest, "source and target parameters required")
		return
	}

	maxDepth := 5
	if v := r.URL.Query().Get("max_depth"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 {
			respondError(w, http.StatusBadRequest, "invalid max_depth")
			return
		}
		maxDepth = d
	}

	edges, err := s.store.QueryAllEdges(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dag := causal.NewDAG()
	for _, edge := range edges {
		dag.AddEdge(edge)
	}

	paths := dag.TracePaths(source, target, maxDepth)
	traced := make([]tracedPath, 0, len(paths))
	for _, p := range paths {
		traced = append(traced, tracedPath{Edges: p, Strength: causal.PathStrength(p)})
	}
	respondJSON(w, http.StatusOK, traced)
}

// orEmpty keeps empty results as [] rather than null in JSON.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
