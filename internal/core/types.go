// Package core defines the fundamental entity and edge types for VitalGraph.
// Every other package holds at most an ID or a copy of these records; the
// graph store owns the persisted rows.
package core

import (
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// PHYSIOLOGICAL SAMPLES - raw vitals delivered by upstream producers
// -----------------------------------------------------------------------------

// MetricType identifies the kind of physiological sample
type MetricType string

const (
	MetricHRV          MetricType = "hrv"
	MetricRestingHR    MetricType = "restingHeartRate"
	MetricSleep        MetricType = "sleep"
	MetricGlucose      MetricType = "glucose"
	MetricSpO2         MetricType = "spo2"
	MetricRespiration  MetricType = "respiration"
	MetricActiveEnergy MetricType = "activeEnergy"
	MetricStepCount    MetricType = "stepCount"
)

// SampleSource identifies who produced a sample
type SampleSource string

const (
	SourceWearable SampleSource = "wearable"
	SourceCGMStelo SampleSource = "cgm_stelo"
	SourceCGMLibre SampleSource = "cgm_libre"
	SourceManual   SampleSource = "manual"
)

// PhysiologicalSample is a single vital reading (HRV, resting HR, sleep
// minutes, SpO2, ...). Value units are fixed per metric type: ms for HRV,
// bpm for resting HR, minutes for sleep, mg/dL for glucose.
type PhysiologicalSample struct {
	ID         int64             `json:"id"`
	MetricType MetricType        `json:"metric_type"`
	Value      float64           `json:"value"`
	Unit       string            `json:"unit"`
	Timestamp  time.Time         `json:"timestamp"`
	Source     SampleSource      `json:"source"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// -----------------------------------------------------------------------------
// GLUCOSE - high-frequency CGM stream with derived dynamics labels
// -----------------------------------------------------------------------------

// GlucoseTrend classifies the rate of change of a CGM stream
type GlucoseTrend string

const (
	TrendRapidlyRising  GlucoseTrend = "rapidlyRising" // >= +3 mg/dL/min
	TrendRising         GlucoseTrend = "rising"        // +1 to +3 mg/dL/min
	TrendStable         GlucoseTrend = "stable"        // -1 to +1 mg/dL/min
	TrendFalling        GlucoseTrend = "falling"       // -1 to -3 mg/dL/min
	TrendRapidlyFalling GlucoseTrend = "rapidlyFalling"
)

// EnergyState is the metabolic state derived from the glucose trajectory,
// used as a ground-truth signal distinct from the raw value.
type EnergyState string

const (
	EnergyStable      EnergyState = "stable"
	EnergyRising      EnergyState = "rising"      // post-meal spike in progress
	EnergyCrashing    EnergyState = "crashing"    // > 30 mg/dL drop from peak
	EnergyReactiveLow EnergyState = "reactiveLow" // below baseline after a spike
)

// GlucoseReading is a single CGM point. Trend and EnergyState are derived
// during the ingestion pass by classify.Readings and are never set
// independently of it.
type GlucoseReading struct {
	ID          int64        `json:"id"`
	GlucoseMgDL float64      `json:"glucose_mg_dl"`
	Timestamp   time.Time    `json:"timestamp"`
	Trend       GlucoseTrend `json:"trend,omitempty"`
	EnergyState EnergyState  `json:"energy_state,omitempty"`
	Source      SampleSource `json:"source"`
	MealID      *int64       `json:"meal_id,omitempty"` // soft reference, may be nil
}

// -----------------------------------------------------------------------------
// BEHAVIOR - screen and activity events
// -----------------------------------------------------------------------------

// BehaviorCategory classifies what a behavioral event means
type BehaviorCategory string

const (
	BehaviorActiveWork         BehaviorCategory = "activeWork"
	BehaviorPassiveConsumption BehaviorCategory = "passiveConsumption"
	BehaviorZombieScrolling    BehaviorCategory = "zombieScrolling"
	BehaviorStressSignal       BehaviorCategory = "stressSignal"
	BehaviorExercise           BehaviorCategory = "exercise"
	BehaviorRest               BehaviorCategory = "rest"
)

// BehavioralEvent is one app-usage or activity interval.
type BehavioralEvent struct {
	ID                int64             `json:"id"`
	Timestamp         time.Time         `json:"timestamp"`
	DurationSeconds   float64           `json:"duration_seconds"`
	Category          BehaviorCategory  `json:"category"`
	AppName           string            `json:"app_name,omitempty"`
	DopamineDebtScore *float64          `json:"dopamine_debt_score,omitempty"` // 0-100
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// IsPassive reports whether the event counts toward passive screen time.
func (e *BehavioralEvent) IsPassive() bool {
	return e.Category == BehaviorPassiveConsumption || e.Category == BehaviorZombieScrolling
}

// -----------------------------------------------------------------------------
// MEALS
// -----------------------------------------------------------------------------

// MealSource identifies where a meal event came from
type MealSource string

const (
	MealSourceRotimatic  MealSource = "rotimatic"
	MealSourceInstantPot MealSource = "instant_pot"
	MealSourceInstacart  MealSource = "instacart"
	MealSourceDoorDash   MealSource = "doordash"
	MealSourceManual     MealSource = "manual"
)

// Ingredient is one component of a meal. Quantity and glycemic index are
// optional; the glycemic load contribution requires both.
type Ingredient struct {
	Name          string   `json:"name"`
	QuantityGrams *float64 `json:"quantity_grams,omitempty"`
	QuantityML    *float64 `json:"quantity_ml,omitempty"`
	GlycemicIndex *float64 `json:"glycemic_index,omitempty"`
	Type          string   `json:"type,omitempty"` // grain, protein, vegetable, ...
}

// MealEvent is a normalized meal from an appliance, delivery service, or
// manual entry.
type MealEvent struct {
	ID                      int64        `json:"id"`
	Timestamp               time.Time    `json:"timestamp"`
	Source                  MealSource   `json:"source"`
	EventType               string       `json:"event_type"` // cook_complete, order_delivered, ...
	Ingredients             []Ingredient `json:"ingredients"`
	CookingMethod           string       `json:"cooking_method,omitempty"`
	EstimatedGlycemicLoad   *float64     `json:"estimated_glycemic_load,omitempty"`
	BioavailabilityModifier *float64     `json:"bioavailability_modifier,omitempty"`
	Confidence              float64      `json:"confidence"` // 0-1
}

// ComputedGlycemicLoad estimates the meal's blood-glucose impact:
// GL = sum(GI * grams * 0.7 / 100) over ingredients carrying both GI and
// grams. Assumes 70% of grain weight is available carbohydrate.
func (m *MealEvent) ComputedGlycemicLoad() float64 {
	total := 0.0
	for _, ing := range m.Ingredients {
		if ing.GlycemicIndex == nil || ing.QuantityGrams == nil {
			continue
		}
		carbGrams := *ing.QuantityGrams * 0.7
		total += *ing.GlycemicIndex * carbGrams / 100.0
	}
	return total
}

// -----------------------------------------------------------------------------
// ENVIRONMENT
// -----------------------------------------------------------------------------

// EnvironmentalCondition is a weather/air-quality snapshot.
type EnvironmentalCondition struct {
	ID                 int64     `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	TemperatureCelsius float64   `json:"temperature_celsius"`
	Humidity           float64   `json:"humidity"`
	AQIUS              int       `json:"aqi_us"`
	UVIndex            float64   `json:"uv_index"`
	PollenIndex        int       `json:"pollen_index"` // 0-12
	Condition          string    `json:"condition"`    // clear, rain, smoke, ...
}

// -----------------------------------------------------------------------------
// CAUSAL GRAPH - edges and anonymized patterns
// -----------------------------------------------------------------------------

// Strong-causal thresholds. Fixed heuristic constants; tuning them is a
// product decision, not a bug fix.
const (
	StrongCausalStrength   = 0.65
	StrongCausalConfidence = 0.65
)

// EdgeType labels the kind of causal relation an edge encodes
type EdgeType string

const (
	EdgeMealToGlucose      EdgeType = "meal_to_glucose"
	EdgeGlucoseToHRV       EdgeType = "glucose_to_hrv"
	EdgeGlucoseToEnergy    EdgeType = "glucose_to_energy"
	EdgeBehaviorToHRV      EdgeType = "behavior_to_hrv"
	EdgeMealToSleep        EdgeType = "meal_to_sleep"
	EdgeBehaviorToSleep    EdgeType = "behavior_to_sleep"
	EdgeEnvironmentToHRV   EdgeType = "environment_to_hrv"
	EdgeEnvironmentToSleep EdgeType = "environment_to_sleep"
	EdgeBehaviorToMeal     EdgeType = "behavior_to_meal"
	EdgeTemporal           EdgeType = "temporal"
	EdgeCausal             EdgeType = "causal"
)

// CausalEdge is a directed relation between two graph nodes. Node IDs are
// "{typePrefix}_{id}" strings (e.g. "meal_42" -> "glucose_7"). They are soft
// references: creation order is not guaranteed, and a miss on lookup means
// "no information", never corruption.
type CausalEdge struct {
	ID                    int64     `json:"id"`
	SourceNodeID          string    `json:"source_node_id"`
	TargetNodeID          string    `json:"target_node_id"`
	EdgeType              EdgeType  `json:"edge_type"`
	CausalStrength        float64   `json:"causal_strength"`         // 0-1, default 0
	TemporalOffsetSeconds float64   `json:"temporal_offset_seconds"` // default 0
	Confidence            float64   `json:"confidence"`              // 0-1, default 0.5
	CreatedAt             time.Time `json:"created_at"`
}

// IsStrongCausal reports whether the edge clears both strength and
// confidence thresholds.
func (e *CausalEdge) IsStrongCausal() bool {
	return e.CausalStrength >= StrongCausalStrength && e.Confidence >= StrongCausalConfidence
}

// NodeID builds the string node identifier for a persisted entity.
func NodeID(prefix string, id int64) string {
	return fmt.Sprintf("%s_%d", prefix, id)
}

// Cloud-sync eligibility thresholds. A pattern backed by fewer than 5
// observations could re-identify a single rare event.
const (
	CloudSyncMinObservations = 5
	CloudSyncMinStrength     = 0.6
)

// CausalPattern is an anonymized aggregate description of a recurring
// cause->effect relationship. Only eligible patterns may ever leave local
// storage.
type CausalPattern struct {
	ID                int64     `json:"id"`
	Pattern           string    `json:"pattern"` // opaque descriptive key
	Strength          float64   `json:"strength"`
	ObservationCount  int       `json:"observation_count"`
	DemographicBucket string    `json:"demographic_bucket,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsCloudSyncEligible reports whether the pattern may be synced off-device.
func (p *CausalPattern) IsCloudSyncEligible() bool {
	return p.ObservationCount >= CloudSyncMinObservations && p.Strength >= CloudSyncMinStrength
}

// -----------------------------------------------------------------------------
// SYNC STATE - incremental fetch cursors for upstream streams
// -----------------------------------------------------------------------------

// SyncState tracks one upstream metric stream's incremental-fetch position.
// One row per metric key, overwritten on each successful fetch.
type SyncState struct {
	MetricType   string    `json:"metric_type"` // primary key
	AnchorData   []byte    `json:"anchor_data,omitempty"`
	LastSyncDate time.Time `json:"last_sync_date"`
}

// SyncCursor is the watermark for the remote meal-sync collaborator. It is
// passed into and returned from the sync call and persisted as a SyncState
// row, never held as ambient global state.
type SyncCursor struct {
	WatermarkMs int64     `json:"watermark_ms"`
	LastSyncAt  time.Time `json:"last_sync_at"`
}

// -----------------------------------------------------------------------------
// DEBT - root-cause buckets ranked by the classifier
// -----------------------------------------------------------------------------

// DebtType is one of the three root-cause buckets
type DebtType string

const (
	DebtMetabolic DebtType = "metabolic"
	DebtDigital   DebtType = "digital"
	DebtSomatic   DebtType = "somatic"
)

// AllDebtTypes returns the buckets in canonical order. Classifier ties keep
// this order.
func AllDebtTypes() []DebtType {
	return []DebtType{DebtMetabolic, DebtDigital, DebtSomatic}
}
