// Package mealsync pulls meal events from the remote kitchen backend and
// ingests them into the graph store, tracking a monotonic watermark so
// repeated pulls are idempotent.
package mealsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// Client is an HTTP client for the remote meal-sync endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a meal-sync client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WireIngredient matches the remote ingredient schema.
type WireIngredient struct {
	Name          string   `json:"name"`
	QuantityGrams *float64 `json:"quantity_grams,omitempty"`
	QuantityML    *float64 `json:"quantity_ml,omitempty"`
	GlycemicIndex *float64 `json:"glycemic_index,omitempty"`
	Type          string   `json:"type,omitempty"`
}

// WireMealEvent matches the remote meal event schema.
type WireMealEvent struct {
	ID                      int64            `json:"id"`
	TimestampMs             int64            `json:"timestamp_ms"`
	Source                  string           `json:"source"`
	EventType               string           `json:"event_type"`
	Ingredients             []WireIngredient `json:"ingredients"`
	CookingMethod           string           `json:"cooking_method,omitempty"`
	EstimatedGlycemicLoad   *float64         `json:"estimated_glycemic_load,omitempty"`
	BioavailabilityModifier *float64         `json:"bioavailability_modifier,omitempty"`
	Confidence              float64          `json:"confidence"`
}

// PullResponse is one page of the pull protocol.
type PullResponse struct {
	Events      []WireMealEvent `json:"events"`
	WatermarkMs int64           `json:"watermark_ms"`
	HasMore     bool            `json:"has_more"`
}

// Pull fetches meal events newer than the watermark. Failures wrap
// core.ErrUpstreamFetch; callers treat them as non-fatal and keep whatever
// data already exists locally.
func (c *Client) Pull(ctx context.Context, sinceMs int64, limit int) (*PullResponse, error) {
	url := fmt.Sprintf("%s/api/v1/sync/pull?since_ms=%d&limit=%d", c.baseURL, sinceMs, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", core.ErrUpstreamFetch, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", core.ErrUpstreamFetch, resp.StatusCode)
	}

	var pull PullResponse
	if err := json.NewDecoder(resp.Body).Decode(&pull); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", core.ErrUpstreamFetch, err)
	}

	return &pull, nil
}

// ToMealEvent maps a wire event into the core model.
func (w *WireMealEvent) ToMealEvent() core.MealEvent {
	ingredients := make([]core.Ingredient, 0, len(w.Ingredients))
	for _, ing := range w.Ingredients {
		ingredients = append(ingredients, core.Ingredient{
			Name:          ing.Name,
			QuantityGrams: ing.QuantityGrams,
			QuantityML:    ing.QuantityML,
			GlycemicIndex: ing.GlycemicIndex,
			Type:          ing.Type,
		})
	}

	return core.MealEvent{
		Timestamp:               time.UnixMilli(w.TimestampMs).UTC(),
		Source:                  core.MealSource(w.Source),
		EventType:               w.EventType,
		Ingredients:             ingredients,
		CookingMethod:           w.CookingMethod,
		EstimatedGlycemicLoad:   w.EstimatedGlycemicLoad,
		BioavailabilityModifier: w.BioavailabilityModifier,
		Confidence:              w.Confidence,
	}
}
