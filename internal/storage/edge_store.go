package storage

import (
	"context"
	"database/sql"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// EdgeStore persists causal edges. Node IDs are plain strings, not foreign
// keys: lookup, not ownership.
type EdgeStore struct {
	db *DB
}

// NewEdgeStore creates a new edge store
func NewEdgeStore(db *DB) *EdgeStore {
	return &EdgeStore{db: db}
}

// Insert persists an edge within the given transaction and assigns its ID.
// No validation that the referenced nodes exist.
func (s *EdgeStore) Insert(tx *sql.Tx, e *core.CausalEdge) error {
	res, err := tx.Exec(`
		INSERT INTO causal_edges (source_node_id, target_node_id, edge_type,
		    causal_strength, temporal_offset_seconds, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.SourceNodeID, e.TargetNodeID, e.EdgeType, e.CausalStrength,
		e.TemporalOffsetSeconds, e.Confidence, e.CreatedAt.UTC())
	if err != nil {
		return err
	}

	e.ID, err = res.LastInsertId()
	return err
}

// QueryBySource returns the outgoing edges of a node, in insertion order.
func (s *EdgeStore) QueryBySource(ctx context.Context, sourceNodeID string) ([]core.CausalEdge, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, source_node_id, target_node_id, edge_type,
		       causal_strength, temporal_offset_seconds, confidence, created_at
		FROM causal_edges
		WHERE source_node_id = ?
		ORDER BY id ASC
	`, sourceNodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEdges(rows)
}

// QueryAll returns every edge, in insertion order.
func (s *EdgeStore) QueryAll(ctx context.Context) ([]core.CausalEdge, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, source_node_id, target_node_id, edge_type,
		       causal_strength, temporal_offset_seconds, confidence, created_at
		FROM causal_edges
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEdges(rows)
}

func scanEdges(rows *sql.Rows) ([]core.CausalEdge, error) {
	var edges []core.CausalEdge
	for rows.Next() {
		var e core.CausalEdge
		if err := rows.Scan(&e.ID, &e.SourceNodeID, &e.TargetNodeID, &e.EdgeType,
			&e.CausalStrength, &e.TemporalOffsetSeconds, &e.Confidence, &e.CreatedAt); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
