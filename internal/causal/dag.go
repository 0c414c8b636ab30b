package causal

import (
	"strings"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// NodeType is the causal-graph level an entity occupies.
type NodeType string

const (
	NodeMeal          NodeType = "meal"
	NodeEnvironmental NodeType = "environmental"
	NodeBehavioral    NodeType = "behavioral"
	NodeGlucose       NodeType = "glucose"
	NodePhysiological NodeType = "physiological"
	NodeSymptom       NodeType = "symptom"
)

// TopologicalOrder is the fixed causal ordering: earlier levels can cause
// later levels, never the reverse.
var TopologicalOrder = []NodeType{
	NodeMeal,
	NodeEnvironmental,
	NodeBehavioral,
	NodeGlucose,
	NodePhysiological,
	NodeSymptom,
}

// forbiddenEdges are direction pairs ruled out even when topologically
// permitted.
var forbiddenEdges = map[[2]NodeType]bool{
	{NodeBehavioral, NodeGlucose}:       true,
	{NodeSymptom, NodeMeal}:             true,
	{NodeEnvironmental, NodeBehavioral}: true,
}

var prefixToNodeType = map[string]NodeType{
	"meal":        NodeMeal,
	"environment": NodeEnvironmental,
	"behavioral":  NodeBehavioral,
	"glucose":     NodeGlucose,
	"physio":      NodePhysiological,
	"symptom":     NodeSymptom,
}

// NodeTypeFromID resolves a "{prefix}_{id}" node ID to its type. Unknown
// prefixes return false.
func NodeTypeFromID(nodeID string) (NodeType, bool) {
	idx := strings.LastIndex(nodeID, "_")
	if idx <= 0 {
		return "", false
	}
	t, ok := prefixToNodeType[nodeID[:idx]]
	return t, ok
}

// IsValidDirection reports whether source can cause target under the
// topological order and the forbidden-edge constraints.
func IsValidDirection(source, target NodeType) bool {
	if forbiddenEdges[[2]NodeType{source, target}] {
		return false
	}
	return levelOf(source) <= levelOf(target)
}

func levelOf(t NodeType) int {
	for i, nt := range TopologicalOrder {
		if nt == t {
			return i
		}
	}
	return len(TopologicalOrder)
}

// DAG is the in-memory causal graph used for hypothesis path tracing. It is
// built from persisted edges; constraint checks happen here, not in the
// store, because edges are soft references by design.
type DAG struct {
	adjacency map[string][]core.CausalEdge
}

// NewDAG creates an empty DAG.
func NewDAG() *DAG {
	return &DAG{adjacency: make(map[string][]core.CausalEdge)}
}

// AddEdge inserts an edge if both endpoints resolve to known node types and
// the direction respects the causal constraints. Returns false for rejected
// edges.
func (d *DAG) AddEdge(edge core.CausalEdge) bool {
	src, ok := NodeTypeFromID(edge.SourceNodeID)
	if !ok {
		return false
	}
	tgt, ok := NodeTypeFromID(edge.TargetNodeID)
	if !ok {
		return false
	}
	if !IsValidDirection(src, tgt) {
		return false
	}

	d.adjacency[edge.SourceNodeID] = append(d.adjacency[edge.SourceNodeID], edge)
	return true
}

// Neighbors returns the outgoing edges of a node. A miss means no
// information, never corruption.
func (d *DAG) Neighbors(nodeID string) []core.CausalEdge {
	return d.adjacency[nodeID]
}

// Edges returns every edge in the DAG.
func (d *DAG) Edges() []core.CausalEdge {
	var edges []core.CausalEdge
	for _, out := range d.adjacency {
		edges = append(edges, out...)
	}
	return edges
}

// TracePaths finds all causal paths from source to target by depth-first
// search, bounded by maxDepth edges.
func (d *DAG) TracePaths(source, target string, maxDepth int) [][]core.CausalEdge {
	var paths [][]core.CausalEdge
	visited := map[string]bool{}
	d.dfs(source, target, nil, visited, &paths, maxDepth)
	return paths
}

func (d *DAG) dfs(current, target string, path []core.CausalEdge, visited map[string]bool, results *[][]core.CausalEdge, maxDepth int) {
	if len(path) > maxDepth {
		return
	}
	if current == target {
		if len(path) > 0 {
			found := make([]core.CausalEdge, len(path))
			copy(found, path)
			*results = append(*results, found)
		}
		return
	}

	visited[current] = true
	for _, edge := range d.adjacency[current] {
		if visited[edge.TargetNodeID] {
			continue
		}
		d.dfs(edge.TargetNodeID, target, append(path, edge), visited, results, maxDepth)
	}
	delete(visited, current)
}

// PathStrength is the product of edge strengths along a path.
func PathStrength(path []core.CausalEdge) float64 {
	strength := 1.0
	for _, edge := range path {
		strength *= edge.CausalStrength
	}
	return strength
}
