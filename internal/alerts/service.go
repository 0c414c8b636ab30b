// Package alerts delivers high-priority escalation alerts to subscribed
// consumers.
package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitalgraph/vitalgraph/internal/causal"
	"github.com/vitalgraph/vitalgraph/internal/logging"
	"github.com/vitalgraph/vitalgraph/internal/storage"
)

// Alert is one escalation surfaced to consumers.
type Alert struct {
	ID             string    `json:"id"`
	Symptom        string    `json:"symptom"`
	Conclusion     string    `json:"conclusion"`
	CompositeScore float64   `json:"composite_score"`
	Narrative      string    `json:"narrative,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Subscriber receives alerts in real time
type Subscriber interface {
	Send(alert Alert) error
	ID() string
}

// Service persists alerts and fans them out to subscribers.
type Service struct {
	store       *storage.AlertStore
	subscribers map[string]Subscriber
	mu          sync.RWMutex
}

// NewService creates a new alert service
func NewService(store *storage.AlertStore) *Service {
	return &Service{
		store:       store,
		subscribers: make(map[string]Subscriber),
	}
}

// Subscribe adds a subscriber for real-time alerts
func (s *Service) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[sub.ID()] = sub
}

// Unsubscribe removes a subscriber
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, id)
}

// Raise records an escalation decision and broadcasts it. Call only for
// decisions that passed the gate.
func (s *Service) Raise(ctx context.Context, exp causal.Explanation, decision causal.EscalationDecision) (*Alert, error) {
	alert := &Alert{
		ID:             uuid.New().String(),
		Symptom:        exp.Symptom,
		Conclusion:     string(exp.Conclusion),
		CompositeScore: decision.CompositeScore,
		Narrative:      exp.Narrative,
		CreatedAt:      time.Now().UTC(),
	}

	err := s.store.Insert(ctx, &storage.AlertRecord{
		ID:             alert.ID,
		Symptom:        alert.Symptom,
		Conclusion:     alert.Conclusion,
		CompositeScore: alert.CompositeScore,
		Narrative:      alert.Narrative,
		CreatedAt:      alert.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("save alert: %w", err)
	}

	s.broadcast(*alert)
	logging.WithFields(map[string]interface{}{
		"symptom": alert.Symptom,
		"score":   alert.CompositeScore,
	}).Info("escalation alert raised")

	return alert, nil
}

// Recent returns the newest alerts, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Alert, error) {
	records, err := s.store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0, len(records))
	for _, r := range records {
		alerts = append(alerts, Alert{
			ID:             r.ID,
			Symptom:        r.Symptom,
			Conclusion:     r.Conclusion,
			CompositeScore: r.CompositeScore,
			Narrative:      r.Narrative,
			CreatedAt:      r.CreatedAt,
		})
	}
	return alerts, nil
}

// broadcast sends the alert to all subscribers
func (s *Service) broadcast(a Alert) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers {
		go func(subscriber Subscriber) {
			subscriber.Send(a)
		}(sub)
	}
}
