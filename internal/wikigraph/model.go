// Package wikigraph holds the plain data types shared across the search
// engine, the segment cache, and the persistence adapter: paths,
// segments, path sets, and the merged result graph returned to clients.
package wikigraph

import (
	"time"

	"github.com/rangulvers/wikigraph/internal/title"
)

// Edge is a directed pair (From, To) meaning "From contains a link to
// To". Edges are never persisted as first-class values; they exist only
// as the parent pointers inside a search frontier or as entries of a
// Path.
type Edge struct {
	From title.Title
	To   title.Title
}

// Path is an ordered, non-empty sequence of titles with no repeats.
// By construction t[0] is the requested start and t[len-1] the
// requested end.
type Path []title.Title

// Len returns the number of hops in the path (edges, not nodes).
func (p Path) Len() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// HasRepeats reports whether any title appears more than once.
func (p Path) HasRepeats() bool {
	seen := make(map[title.Title]struct{}, len(p))
	for _, t := range p {
		if _, ok := seen[t]; ok {
			return true
		}
		seen[t] = struct{}{}
	}
	return false
}

// Intermediates returns the titles strictly between the endpoints,
// used by the diversity extractor's Jaccard distance computation.
func (p Path) Intermediates() []title.Title {
	if len(p) <= 2 {
		return nil
	}
	return p[1 : len(p)-1]
}

// Equal reports whether two paths are identical under title equality.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the path, so callers sharing a cached path
// cannot mutate each other's slice.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Segment is a reusable path keyed by its endpoints.
type Segment struct {
	Start    title.Title
	End      title.Title
	Titles   Path
	UseCount int
	LastUsed time.Time
}

// PathSet is an ordered collection of up to K diverse paths for one
// (start, end) request. The first element is always the shortest path
// found.
type PathSet struct {
	Paths []Path
}

// MergedGraph is the union of nodes and edges across a PathSet, with
// per-node and per-edge path-index membership, used for client-side
// rendering.
type MergedGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode is one title in the merged graph, annotated with the
// indices of every path in the set that contains it.
type GraphNode struct {
	Title       title.Title `json:"title"`
	PathIndices []int       `json:"path_indices"`
}

// GraphEdge is one adjacent pair in the merged graph, annotated with
// the indices of every path that uses it.
type GraphEdge struct {
	From        title.Title `json:"from"`
	To          title.Title `json:"to"`
	PathIndices []int       `json:"path_indices"`
}

// Merge builds a MergedGraph from a PathSet.
func Merge(set PathSet) MergedGraph {
	nodeIndex := make(map[title.Title]int)
	var nodes []GraphNode

	edgeIndex := make(map[Edge]int)
	var edges []GraphEdge

	for pathIdx, p := range set.Paths {
		for _, t := range p {
			idx, ok := nodeIndex[t]
			if !ok {
				idx = len(nodes)
				nodeIndex[t] = idx
				nodes = append(nodes, GraphNode{Title: t})
			}
			nodes[idx].PathIndices = append(nodes[idx].PathIndices, pathIdx)
		}

		for i := 0; i+1 < len(p); i++ {
			e := Edge{From: p[i], To: p[i+1]}
			idx, ok := edgeIndex[e]
			if !ok {
				idx = len(edges)
				edgeIndex[e] = idx
				edges = append(edges, GraphEdge{From: e.From, To: e.To})
			}
			edges[idx].PathIndices = append(edges[idx].PathIndices, pathIdx)
		}
	}

	return MergedGraph{Nodes: nodes, Edges: edges}
}
