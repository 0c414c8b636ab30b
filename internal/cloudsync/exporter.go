// Package cloudsync exports anonymized causal patterns off-device. Only
// patterns past the eligibility thresholds ever serialize; the filter lives
// in the graph store and this exporter never bypasses it.
package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
	"github.com/vitalgraph/vitalgraph/internal/logging"
)

// Store is the slice of the graph store the exporter reads from.
type Store interface {
	CloudEligiblePatterns(ctx context.Context) ([]core.CausalPattern, error)
}

// Exporter posts eligible patterns to the aggregate endpoint.
type Exporter struct {
	endpoint   string
	store      Store
	httpClient *http.Client
}

// NewExporter creates a cloud pattern exporter.
func NewExporter(endpoint string, store Store) *Exporter {
	return &Exporter{
		endpoint: endpoint,
		store:    store,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// exportPayload is the wire shape of one upload. Pattern rows carry no
// per-event data, only aggregates.
type exportPayload struct {
	Patterns   []exportPattern `json:"patterns"`
	ExportedAt time.Time       `json:"exported_at"`
}

type exportPattern struct {
	Pattern           string  `json:"pattern"`
	Strength          float64 `json:"strength"`
	ObservationCount  int     `json:"observation_count"`
	DemographicBucket string  `json:"demographic_bucket,omitempty"`
}

// Export uploads every eligible pattern. Returns the number uploaded; zero
// eligible patterns is a successful no-op.
func (e *Exporter) Export(ctx context.Context) (int, error) {
	patterns, err := e.store.CloudEligiblePatterns(ctx)
	if err != nil {
		return 0, fmt.Errorf("load eligible patterns: %w", err)
	}
	if len(patterns) == 0 {
		return 0, nil
	}

	payload := exportPayload{ExportedAt: time.Now().UTC()}
	for _, p := range patterns {
		payload.Patterns = append(payload.Patterns, exportPattern{
			Pattern:           p.Pattern,
			Strength:          p.Strength,
			ObservationCount:  p.ObservationCount,
			DemographicBucket: p.DemographicBucket,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal export payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: build export request: %v", core.ErrUpstreamFetch, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: export status %d", core.ErrUpstreamFetch, resp.StatusCode)
	}

	logging.WithField("patterns", len(payload.Patterns)).Info("exported causal patterns")
	return len(payload.Patterns), nil
}
