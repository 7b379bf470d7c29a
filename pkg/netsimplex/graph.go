package netsimplex

import (
	"errors"
	"fmt"
	"math"
)

// MaxElements bounds the number of nodes and edges a Graph can hold. DFS
// interval numbering and tree indices must fit in an int32.
const MaxElements = math.MaxInt32 - 1

var (
	// ErrUnknownNode is returned by [Graph.AddEdge] when an endpoint index
	// does not name a node of the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfLoop is returned by [Graph.AddEdge] when tail and head are the
	// same node. Self loops can never carry a positive rank separation.
	ErrSelfLoop = errors.New("self loop")

	// ErrNegativeMinLen is returned by [Graph.AddEdge] for minlen < 0.
	ErrNegativeMinLen = errors.New("negative minlen")

	// ErrNegativeWeight is returned by [Graph.AddEdge] for weight < 0.
	ErrNegativeWeight = errors.New("negative weight")

	// ErrGraphTooLarge is returned when adding a node or edge would exceed
	// MaxElements.
	ErrGraphTooLarge = errors.New("graph too large")
)

type node struct {
	rank    int
	virtual bool
	label   string
	out     []int
	in      []int
}

type edge struct {
	tail   int
	head   int
	minlen int
	weight int
}

// Graph is an arena of nodes and edges addressed by stable integer indices.
//
// Topology (endpoints, minlen, weight) is fixed once added; only ranks are
// mutated by [Rank]. A Graph is not safe for concurrent use, but distinct
// graphs can be ranked concurrently.
type Graph struct {
	nodes []node
	edges []edge
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddNode appends a node and returns its index. Virtual nodes take part in
// ranking but are ignored when ranks are normalized and balanced.
func (g *Graph) AddNode(virtual bool) (int, error) {
	if len(g.nodes) >= MaxElements {
		return -1, ErrGraphTooLarge
	}
	g.nodes = append(g.nodes, node{virtual: virtual})
	return len(g.nodes) - 1, nil
}

// AddLabeledNode is AddNode with a display label used in diagnostics.
func (g *Graph) AddLabeledNode(label string, virtual bool) (int, error) {
	n, err := g.AddNode(virtual)
	if err != nil {
		return n, err
	}
	g.nodes[n].label = label
	return n, nil
}

// AddEdge adds the constraint rank(head) - rank(tail) >= minlen with the
// given weight and returns the edge index.
func (g *Graph) AddEdge(tail, head, minlen, weight int) (int, error) {
	switch {
	case !g.valid(tail):
		return -1, fmt.Errorf("tail %d: %w", tail, ErrUnknownNode)
	case !g.valid(head):
		return -1, fmt.Errorf("head %d: %w", head, ErrUnknownNode)
	case tail == head:
		return -1, fmt.Errorf("node %d: %w", tail, ErrSelfLoop)
	case minlen < 0:
		return -1, fmt.Errorf("edge %d->%d: %w", tail, head, ErrNegativeMinLen)
	case weight < 0:
		return -1, fmt.Errorf("edge %d->%d: %w", tail, head, ErrNegativeWeight)
	case len(g.edges) >= MaxElements:
		return -1, ErrGraphTooLarge
	}
	id := len(g.edges)
	g.edges = append(g.edges, edge{tail: tail, head: head, minlen: minlen, weight: weight})
	g.nodes[tail].out = append(g.nodes[tail].out, id)
	g.nodes[head].in = append(g.nodes[head].in, id)
	return id, nil
}

func (g *Graph) valid(n int) bool { return n >= 0 && n < len(g.nodes) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Rank returns the current rank of node n.
func (g *Graph) Rank(n int) int { return g.nodes[n].rank }

// SetRank sets the rank of node n. Ranks set before calling [Rank] are kept
// as the starting point when they already satisfy every constraint.
func (g *Graph) SetRank(n, rank int) { g.nodes[n].rank = rank }

// Ranks returns a copy of all node ranks indexed by node.
func (g *Graph) Ranks() []int {
	ranks := make([]int, len(g.nodes))
	for i := range g.nodes {
		ranks[i] = g.nodes[i].rank
	}
	return ranks
}

// IsVirtual reports whether node n was added as a virtual node.
func (g *Graph) IsVirtual(n int) bool { return g.nodes[n].virtual }

// Label returns the label of node n, or its index when it has none.
func (g *Graph) Label(n int) string {
	if l := g.nodes[n].label; l != "" {
		return l
	}
	return fmt.Sprintf("#%d", n)
}

// Endpoints returns the tail and head of edge e.
func (g *Graph) Endpoints(e int) (tail, head int) {
	return g.edges[e].tail, g.edges[e].head
}

// MinLen returns the minimum rank separation of edge e.
func (g *Graph) MinLen(e int) int { return g.edges[e].minlen }

// Weight returns the weight of edge e.
func (g *Graph) Weight(e int) int { return g.edges[e].weight }

// OutEdges returns the edges leaving node n. The slice must not be modified.
func (g *Graph) OutEdges(n int) []int { return g.nodes[n].out }

// InEdges returns the edges entering node n. The slice must not be modified.
func (g *Graph) InEdges(n int) []int { return g.nodes[n].in }

// Length returns rank(head) - rank(tail) for edge e.
func (g *Graph) Length(e int) int {
	ed := &g.edges[e]
	return g.nodes[ed.head].rank - g.nodes[ed.tail].rank
}

// Slack returns Length(e) - MinLen(e). It is non-negative for every edge of
// a feasible ranking and zero for tight edges.
func (g *Graph) Slack(e int) int {
	return g.Length(e) - g.edges[e].minlen
}

// Feasible reports whether every edge satisfies its minlen constraint.
func (g *Graph) Feasible() bool {
	for e := range g.edges {
		if g.Slack(e) < 0 {
			return false
		}
	}
	return true
}

// TotalLength returns the objective value: the sum of weight * length over
// all edges.
func (g *Graph) TotalLength() int64 {
	var total int64
	for e := range g.edges {
		total += int64(g.edges[e].weight) * int64(g.Length(e))
	}
	return total
}
