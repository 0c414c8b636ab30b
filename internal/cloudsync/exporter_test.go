package cloudsync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

type fakePatternStore struct {
	patterns []core.CausalPattern
	err      error
}

func (f *fakePatternStore) CloudEligiblePatterns(ctx context.Context) ([]core.CausalPattern, error) {
	return f.patterns, f.err
}

func TestExportUploadsEligiblePatterns(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &fakePatternStore{
		patterns: []core.CausalPattern{
			{Pattern: "high_gi_meal->crash", Strength: 0.8, ObservationCount: 12, DemographicBucket: "30s"},
		},
	}

	count, err := NewExporter(srv.URL, store).Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Export() count = %d, want 1", count)
	}

	var payload struct {
		Patterns []map[string]interface{} `json:"patterns"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if len(payload.Patterns) != 1 {
		t.Fatalf("payload carries %d patterns, want 1", len(payload.Patterns))
	}
	if payload.Patterns[0]["pattern"] != "high_gi_meal->crash" {
		t.Errorf("payload pattern = %v", payload.Patterns[0]["pattern"])
	}

	// Aggregates only: raw identifiers must never appear in the payload.
	if strings.Contains(string(gotBody), "timestamp") || strings.Contains(string(gotBody), "node_id") {
		t.Errorf("payload leaks per-event fields: %s", gotBody)
	}
}

func TestExportNoEligiblePatternsIsNoOp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made when nothing is eligible")
	}))
	defer srv.Close()

	count, err := NewExporter(srv.URL, &fakePatternStore{}).Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Export() count = %d, want 0", count)
	}
}

func TestExportServerRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	store := &fakePatternStore{
		patterns: []core.CausalPattern{{Pattern: "p", Strength: 0.8, ObservationCount: 10}},
	}

	_, err := NewExporter(srv.URL, store).Export(context.Background())
	if !errors.Is(err, core.ErrUpstreamFetch) {
		t.Errorf("Export() error = %v, want ErrUpstreamFetch", err)
	}
}

func TestExportStoreFailure(t *testing.T) {
	store := &fakePatternStore{err: errors.New("db locked")}
	_, err := NewExporter("http://localhost:0", store).Export(context.Background())
	if err == nil {
		t.Error("Export() should surface store errors")
	}
}
