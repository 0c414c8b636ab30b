package mealsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
	"github.com/vitalgraph/vitalgraph/internal/logging"
)

// CursorKey is the sync_state row holding the meal-sync watermark.
const CursorKey = "mealsync"

// DefaultPageSize bounds one pull page.
const DefaultPageSize = 100

// Store is the slice of the graph store the sync service needs.
type Store interface {
	IngestMeal(ctx context.Context, meal core.MealEvent) (core.MealEvent, error)
	GetSyncState(ctx context.Context, metricType string) (*core.SyncState, error)
	PutSyncState(ctx context.Context, state core.SyncState) error
}

// Service drives the pull loop against the remote collaborator.
type Service struct {
	client *Client
	store  Store
}

// NewService creates the meal-sync service.
func NewService(client *Client, store Store) *Service {
	return &Service{client: client, store: store}
}

// Result summarizes one sync run.
type Result struct {
	Ingested int             `json:"ingested"`
	Cursor   core.SyncCursor `json:"cursor"`
}

// Sync pulls all pages newer than the given cursor, ingests each event, and
// returns the advanced cursor. The cursor is persisted after every page, so
// a partial run never reprocesses committed events. Upstream failures return
// the progress made so far along with the error; local data stays intact.
func (s *Service) Sync(ctx context.Context, cursor core.SyncCursor) (Result, error) {
	result := Result{Cursor: cursor}

	for {
		pull, err := s.client.Pull(ctx, result.Cursor.WatermarkMs, DefaultPageSize)
		if err != nil {
			return result, err
		}

		for i := range pull.Events {
			meal := pull.Events[i].ToMealEvent()
			if _, err := s.store.IngestMeal(ctx, meal); err != nil {
				return result, fmt.Errorf("ingest pulled meal: %w", err)
			}
			result.Ingested++
		}

		if pull.WatermarkMs > result.Cursor.WatermarkMs {
			result.Cursor.WatermarkMs = pull.WatermarkMs
		}
		result.Cursor.LastSyncAt = time.Now().UTC()

		if err := s.saveCursor(ctx, result.Cursor); err != nil {
			return result, err
		}

		if !pull.HasMore {
			return result, nil
		}
	}
}

// SyncFromStored loads the persisted cursor (zero when local state was
// reset) and runs Sync.
func (s *Service) SyncFromStored(ctx context.Context) (Result, error) {
	cursor, err := s.loadCursor(ctx)
	if err != nil {
		return Result{}, err
	}

	result, err := s.Sync(ctx, cursor)
	if err != nil && errors.Is(err, core.ErrUpstreamFetch) {
		// Non-fatal: the scorers keep working on whatever exists locally.
		logging.WithField("error", err.Error()).Warn("meal sync unavailable, using local data")
		return result, err
	}
	return result, err
}

func (s *Service) loadCursor(ctx context.Context) (core.SyncCursor, error) {
	state, err := s.store.GetSyncState(ctx, CursorKey)
	if errors.Is(err, core.ErrRecordNotFound) {
		return core.SyncCursor{}, nil
	}
	if err != nil {
		return core.SyncCursor{}, err
	}

	var cursor core.SyncCursor
	if len(state.AnchorData) > 0 {
		if err := json.Unmarshal(state.AnchorData, &cursor); err != nil {
			// Corrupt anchor: restart from zero rather than wedging sync.
			return core.SyncCursor{}, nil
		}
	}
	cursor.LastSyncAt = state.LastSyncDate
	return cursor, nil
}

func (s *Service) saveCursor(ctx context.Context, cursor core.SyncCursor) error {
	anchor, _ := json.Marshal(cursor)
	return s.store.PutSyncState(ctx, core.SyncState{
		MetricType:   CursorKey,
		AnchorData:   anchor,
		LastSyncDate: cursor.LastSyncAt,
	})
}
