package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/alerts"
	"github.com/vitalgraph/vitalgraph/internal/causal"
	"github.com/vitalgraph/vitalgraph/internal/core"
	"github.com/vitalgraph/vitalgraph/internal/debt"
	"github.com/vitalgraph/vitalgraph/internal/graph"
	"github.com/vitalgraph/vitalgraph/internal/storage"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.Open(storage.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	store := graph.New(db)
	return New(Config{
		Port:         0,
		Store:        store,
		Engine:       debt.NewEngine(store),
		Gate:         causal.NewGate(store),
		AlertService: alerts.NewService(storage.NewAlertStore(db)),
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}
}

func TestIngestAndQuerySample(t *testing.T) {
	s := testServer(t)
	ts := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/ingest/samples", core.PhysiologicalSample{
		MetricType: core.MetricHRV,
		Value:      55,
		Unit:       "ms",
		Timestamp:  ts,
		Source:     core.SourceWearable,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest status = %d, body %s", rec.Code, rec.Body)
	}

	var created core.PhysiologicalSample
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created sample: %v", err)
	}
	if created.ID == 0 {
		t.Error("created sample missing ID")
	}

	path := fmt.Sprintf("/api/v1/query/samples?metric=hrv&from=%s&to=%s",
		ts.Add(-time.Hour).Format(time.RFC3339), ts.Add(time.Hour).Format(time.RFC3339))
	rec = doJSON(t, s, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d, body %s", rec.Code, rec.Body)
	}
	var samples []core.PhysiologicalSample
	if err := json.Unmarshal(rec.Body.Bytes(), &samples); err != nil {
		t.Fatalf("decode samples: %v", err)
	}
	if len(samples) != 1 || samples[0].Value != 55 {
		t.Errorf("query returned %+v, want the ingested sample", samples)
	}
}

func TestIngestSampleValidationMapsTo400(t *testing.T) {
	s := testServer(t)

	// Missing timestamp.
	rec := doJSON(t, s, http.MethodPost, "/api/v1/ingest/samples", core.PhysiologicalSample{
		MetricType: core.MetricHRV,
		Value:      55,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid sample status = %d, want 400", rec.Code)
	}

	// Broken JSON.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/samples", bytes.NewBufferString("{"))
	rec2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("broken JSON status = %d, want 400", rec2.Code)
	}
}

func TestIngestGlucoseBatchClassifiesOverHTTP(t *testing.T) {
	s := testServer(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/ingest/glucose", []core.GlucoseReading{
		{GlucoseMgDL: 90, Timestamp: base, Source: core.SourceCGMStelo},
		{GlucoseMgDL: 130, Timestamp: base.Add(10 * time.Minute), Source: core.SourceCGMStelo},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest status = %d, body %s", rec.Code, rec.Body)
	}

	var readings []core.GlucoseReading
	if err := json.Unmarshal(rec.Body.Bytes(), &readings); err != nil {
		t.Fatalf("decode readings: %v", err)
	}
	if readings[1].Trend != core.TrendRapidlyRising {
		t.Errorf("returned trend = %v, want rapidlyRising", readings[1].Trend)
	}
}

func TestQueryEmptyRangeReturnsArray(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/query/glucose", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("empty query body = %q, want JSON array", body)
	}
}

func TestQueryEdgesRequiresSource(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/query/edges", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("edges without source status = %d, want 400", rec.Code)
	}
}

func TestTracePathsEndpoint(t *testing.T) {
	s := testServer(t)

	edges := []core.CausalEdge{
		{SourceNodeID: "meal_1", TargetNodeID: "glucose_2", EdgeType: core.EdgeMealToGlucose, CausalStrength: 0.9, Confidence: 0.8},
		{SourceNodeID: "glucose_2", TargetNodeID: "physio_3", EdgeType: core.EdgeGlucoseToHRV, CausalStrength: 0.7, Confidence: 0.8},
		// Persists as a soft reference but violates the causal ordering, so
		// the rebuilt graph must leave it out.
		{SourceNodeID: "behavioral_5", TargetNodeID: "glucose_2", EdgeType: core.EdgeTemporal, CausalStrength: 0.9, Confidence: 0.8},
	}
	for _, e := range edges {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/ingest/edges", e)
		if rec.Code != http.StatusCreated {
			t.Fatalf("ingest edge status = %d, body %s", rec.Code, rec.Body)
		}
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/query/paths?source=meal_1&target=physio_3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trace status = %d, body %s", rec.Code, rec.Body)
	}

	var paths []tracedPath
	if err := json.Unmarshal(rec.Body.Bytes(), &paths); err != nil {
		t.Fatalf("decode paths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(paths))
	}
	if len(paths[0].Edges) != 2 {
		t.Errorf("path length = %d edges, want 2", len(paths[0].Edges))
	}
	if diff := paths[0].Strength - 0.63; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("path strength = %v, want 0.63", paths[0].Strength)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/query/paths?source=behavioral_5&target=glucose_2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trace status = %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("constraint-violating route body = %q, want empty array", body)
	}
}

func TestTracePathsRequiresEndpoints(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/query/paths?source=meal_1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("paths without target status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/v1/query/paths?source=meal_1&target=physio_3&max_depth=zero", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("paths with bad max_depth status = %d, want 400", rec.Code)
	}
}

func TestDebtScoresEndpoint(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/debt/scores", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("scores status = %d, body %s", rec.Code, rec.Body)
	}

	var scores []debt.Score
	if err := json.Unmarshal(rec.Body.Bytes(), &scores); err != nil {
		t.Fatalf("decode scores: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("got %d scores, want 3", len(scores))
	}
	for _, sc := range scores {
		if !sc.Computed {
			t.Errorf("%s score not marked computed", sc.Type)
		}
		if sc.Value != 0 {
			t.Errorf("%s score = %v on empty store, want 0", sc.Type, sc.Value)
		}
	}
}

func TestClassifyEndpoint(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/debt/classify", classifyRequest{
		Hypotheses: []causal.Hypothesis{
			{Type: core.DebtMetabolic, PriorProbability: 0.9, Confidence: 0.8},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("classify status = %d, body %s", rec.Code, rec.Body)
	}

	var ranked []causal.RankedDebt
	if err := json.Unmarshal(rec.Body.Bytes(), &ranked); err != nil {
		t.Fatalf("decode ranking: %v", err)
	}
	if len(ranked) != 3 || ranked[0].Type != core.DebtMetabolic {
		t.Errorf("ranking = %+v, want metabolic first", ranked)
	}
}

func TestClassifyEndpointIgnoresUnknownEvidenceKeys(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/debt/classify", classifyRequest{
		Observations: []causal.Observation{
			{
				Source:     "wearable",
				Evidence:   map[core.DebtType]float64{core.DebtType("sleep"): 5.0},
				Confidence: 1.0,
			},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("classify status = %d, body %s", rec.Code, rec.Body)
	}

	var ranked []causal.RankedDebt
	if err := json.Unmarshal(rec.Body.Bytes(), &ranked); err != nil {
		t.Fatalf("decode ranking: %v", err)
	}
	sum := 0.0
	for _, r := range ranked {
		sum += r.NormalizedScore
	}
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("normalized scores sum to %v, want 1.0", sum)
	}
}

func TestEscalationEndpointRaisesAlert(t *testing.T) {
	s := testServer(t)
	from := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)

	// Corroborating stress signal in the window.
	rec := doJSON(t, s, http.MethodPost, "/api/v1/ingest/behaviors", core.BehavioralEvent{
		Timestamp:       from.Add(time.Hour),
		Category:        core.BehaviorStressSignal,
		DurationSeconds: 60,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed behavior status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/v1/escalation/check", escalationRequest{
		Explanation: causal.Explanation{
			Symptom:    "afternoon crash",
			Conclusion: core.DebtMetabolic,
			Confidence: 0.95,
		},
		From: from,
		To:   to,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("escalation status = %d, body %s", rec.Code, rec.Body)
	}

	var decision causal.EscalationDecision
	if err := json.Unmarshal(rec.Body.Bytes(), &decision); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	// 0.5*0.95 + 0.3*1.0 = 0.775 >= 0.75
	if !decision.Escalate {
		t.Fatalf("decision = %+v, want escalation", decision)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/alerts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("alerts status = %d", rec.Code)
	}
	var recent []alerts.Alert
	if err := json.Unmarshal(rec.Body.Bytes(), &recent); err != nil {
		t.Fatalf("decode alerts: %v", err)
	}
	if len(recent) != 1 || recent[0].Symptom != "afternoon crash" {
		t.Errorf("alerts = %+v, want the raised escalation", recent)
	}
}

func TestEscalationBelowThresholdRaisesNothing(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/escalation/check", escalationRequest{
		Explanation: causal.Explanation{
			Symptom:    "mild fatigue",
			Conclusion: core.DebtDigital,
			Confidence: 0.6,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("escalation status = %d", rec.Code)
	}

	var decision causal.EscalationDecision
	json.Unmarshal(rec.Body.Bytes(), &decision)
	if decision.Escalate {
		t.Fatalf("decision = %+v, want no escalation", decision)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/alerts", nil)
	var recent []alerts.Alert
	json.Unmarshal(rec.Body.Bytes(), &recent)
	if len(recent) != 0 {
		t.Errorf("alerts = %+v, want none", recent)
	}
}

func TestTimeRangeValidation(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/query/glucose?from=notatime", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad from param status = %d, want 400", rec.Code)
	}
}
