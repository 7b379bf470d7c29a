package netsimplex

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEdge struct {
	from, to       string
	minlen, weight int
}

// buildGraph adds nodes in order of first appearance in names and edges.
func buildGraph(t *testing.T, names []string, edges []testEdge) (*Graph, map[string]int) {
	t.Helper()
	g := NewGraph()
	ids := make(map[string]int)
	add := func(name string) {
		if _, ok := ids[name]; ok {
			return
		}
		id, err := g.AddLabeledNode(name, false)
		require.NoError(t, err)
		ids[name] = id
	}
	for _, n := range names {
		add(n)
	}
	for _, e := range edges {
		add(e.from)
		add(e.to)
		_, err := g.AddEdge(ids[e.from], ids[e.to], e.minlen, e.weight)
		require.NoError(t, err)
	}
	return g, ids
}

func ranksByName(g *Graph, ids map[string]int) map[string]int {
	out := make(map[string]int, len(ids))
	for name, id := range ids {
		out[name] = g.Rank(id)
	}
	return out
}

// chainWithShortcut is A->B->C->D plus A->X->D where X->D weighs twice as
// much, so X belongs next to D. Longest-path ranking puts X next to A.
func chainWithShortcut() []testEdge {
	return []testEdge{
		{"A", "B", 1, 1},
		{"B", "C", 1, 1},
		{"C", "D", 1, 1},
		{"A", "X", 1, 1},
		{"X", "D", 1, 2},
	}
}

func TestRank_Diamond(t *testing.T) {
	g, ids := buildGraph(t, nil, []testEdge{
		{"A", "B", 1, 1},
		{"A", "C", 1, 1},
		{"B", "D", 1, 1},
		{"C", "D", 1, 1},
	})

	stats, err := Rank(g, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 1, "D": 2}, ranksByName(g, ids))
	assert.Equal(t, int64(4), stats.TotalLength)
	assert.Zero(t, stats.Iterations)
	assert.False(t, stats.Capped)
}

func TestRank_MinLenChainDominates(t *testing.T) {
	g, ids := buildGraph(t, nil, []testEdge{
		{"A", "B", 1, 10},
		{"A", "C", 1, 1},
		{"C", "D", 1, 1},
		{"D", "B", 1, 1},
	})

	stats, err := Rank(g, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"A": 0, "C": 1, "D": 2, "B": 3}, ranksByName(g, ids))
	assert.Equal(t, int64(33), stats.TotalLength)
}

func TestRank_Disconnected(t *testing.T) {
	g, _ := buildGraph(t, []string{"lonely"}, []testEdge{{"A", "B", 1, 1}})

	_, err := Rank(g, DefaultOptions())

	assert.ErrorIs(t, err, ErrDisconnected)
	assert.Equal(t, StatusDisconnected, StatusOf(err))
}

func TestRank_Cycle(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	g, _ := buildGraph(t, nil, []testEdge{
		{"A", "B", 1, 1},
		{"B", "C", 1, 1},
		{"C", "A", 1, 1},
	})
	opts := DefaultOptions()
	opts.Logger = logger

	_, err := Rank(g, opts)

	assert.ErrorIs(t, err, ErrCycle)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, StatusInternal, StatusOf(err))
	assert.Contains(t, buf.String(), "node not ranked")
}

func TestRank_EmptyAndSingleton(t *testing.T) {
	stats, err := Rank(NewGraph(), DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, stats.Nodes)

	g := NewGraph()
	n, _ := g.AddNode(false)
	g.SetRank(n, 7)
	_, err = Rank(g, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, g.Rank(n))
}

func TestRank_InvalidOptions(t *testing.T) {
	g, _ := buildGraph(t, nil, []testEdge{{"A", "B", 1, 1}})
	opts := DefaultOptions()
	opts.MaxIterations = -1

	_, err := Rank(g, opts)
	assert.ErrorIs(t, err, ErrInvalidOption)

	opts = DefaultOptions()
	opts.Balance = BalanceMode(9)
	_, err = Rank(g, opts)
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestRank_PivotMovesNodeTowardHeavyEdge(t *testing.T) {
	g, ids := buildGraph(t, nil, chainWithShortcut())

	stats, err := Rank(g, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, g.Rank(ids["X"]))
	assert.Equal(t, 3, g.Rank(ids["D"]))
	assert.Equal(t, int64(7), stats.TotalLength)
	assert.Equal(t, 1, stats.Iterations)
}

func TestRank_MaxIterationsCaps(t *testing.T) {
	edges := append(chainWithShortcut(), testEdge{"A", "Y", 1, 1}, testEdge{"Y", "D", 1, 2})

	g, _ := buildGraph(t, nil, edges)
	stats, err := Rank(g, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Iterations)
	assert.False(t, stats.Capped)
	optimal := stats.TotalLength

	g, _ = buildGraph(t, nil, edges)
	opts := DefaultOptions()
	opts.MaxIterations = 1
	stats, err = Rank(g, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Iterations)
	assert.True(t, stats.Capped)
	assert.True(t, g.Feasible())
	assert.Greater(t, stats.TotalLength, optimal)
}

func TestRank_ZeroIterationsKeepsFeasibleRanks(t *testing.T) {
	g, ids := buildGraph(t, nil, []testEdge{{"A", "B", 1, 1}})
	g.SetRank(ids["A"], 5)
	g.SetRank(ids["B"], 6)
	opts := DefaultOptions()
	opts.MaxIterations = 0

	stats, err := Rank(g, opts)
	require.NoError(t, err)

	assert.Equal(t, 5, g.Rank(ids["A"]))
	assert.Equal(t, 6, g.Rank(ids["B"]))
	assert.Zero(t, stats.Iterations)
}

func TestRank_NormalizesFeasibleStart(t *testing.T) {
	g, ids := buildGraph(t, nil, []testEdge{{"A", "B", 1, 1}})
	g.SetRank(ids["A"], 5)
	g.SetRank(ids["B"], 6)

	_, err := Rank(g, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, g.Rank(ids["A"]))
	assert.Equal(t, 1, g.Rank(ids["B"]))
}

func TestRank_InfeasibleStartIsReranked(t *testing.T) {
	g, ids := buildGraph(t, nil, []testEdge{{"A", "B", 2, 1}})
	g.SetRank(ids["A"], 3)
	g.SetRank(ids["B"], 1)

	_, err := Rank(g, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, g.Rank(ids["A"]))
	assert.Equal(t, 2, g.Rank(ids["B"]))
}

func TestRank_VirtualNodesIgnoredByNormalize(t *testing.T) {
	g := NewGraph()
	v, _ := g.AddNode(true)
	a, _ := g.AddNode(false)
	_, err := g.AddEdge(v, a, 1, 1)
	require.NoError(t, err)

	_, err = Rank(g, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, g.Rank(a))
	assert.Equal(t, -1, g.Rank(v))
}

func TestRank_ZeroMinLenAndWeight(t *testing.T) {
	g, ids := buildGraph(t, nil, []testEdge{
		{"A", "B", 0, 1},
		{"B", "C", 1, 0},
		{"A", "C", 2, 1},
	})

	stats, err := Rank(g, DefaultOptions())
	require.NoError(t, err)

	assert.True(t, g.Feasible())
	assert.Equal(t, 0, g.Rank(ids["A"]))
	assert.Equal(t, 2, g.Rank(ids["C"]))
	assert.Equal(t, int64(2), stats.TotalLength)
}

func TestRank_Idempotent(t *testing.T) {
	g, ids := buildGraph(t, nil, chainWithShortcut())
	first, err := Rank(g, DefaultOptions())
	require.NoError(t, err)
	before := ranksByName(g, ids)

	second, err := Rank(g, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, before, ranksByName(g, ids))
	assert.Equal(t, first.TotalLength, second.TotalLength)
	assert.Zero(t, second.Iterations)
}

func TestRank_RerunKeepsRanksAndLength(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 500; i++ {
		g := randomDAG(rng, 2+rng.IntN(12), 2+rng.IntN(24), 3, 4)
		first, err := Rank(g, DefaultOptions())
		require.NoError(t, err)
		before := g.Ranks()

		second, err := Rank(g, DefaultOptions())
		require.NoError(t, err)

		require.Equal(t, before, g.Ranks(), "graph %d", i)
		require.Equal(t, first.TotalLength, second.TotalLength, "graph %d", i)
		require.Equal(t, second.Iterations, second.Degenerate,
			"graph %d: rerun moved a node", i)
	}
}

func TestRank_CountsDegeneratePivots(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 200; i++ {
		g := randomDAG(rng, 3+rng.IntN(15), 3+rng.IntN(30), 3, 4)
		stats, err := Rank(g, DefaultOptions())
		require.NoError(t, err)
		assert.LessOrEqual(t, stats.Degenerate, stats.Iterations)
	}
}

func TestRank_SearchSizeDoesNotChangeOptimum(t *testing.T) {
	for _, size := range []int{1, 2, 30, 1000} {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(42, uint64(size)))
			g := randomDAG(rng, 12, 20, 3, 4)
			want := g.clone()

			opts := DefaultOptions()
			opts.SearchSize = size
			stats, err := Rank(g, opts)
			require.NoError(t, err)

			ref, err := Rank(want, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, ref.TotalLength, stats.TotalLength)
		})
	}
}

func TestRank_Logging(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Logger = log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	g, _ := buildGraph(t, nil, chainWithShortcut())

	_, err := Rank(g, opts)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "network simplex")
	assert.Contains(t, out, "iterations=1")
}

func TestRank_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 40; i++ {
		n := 2 + rng.IntN(4)
		g := randomDAG(rng, n, n+rng.IntN(3), 2, 3)
		want := bruteForce(g)

		stats, err := Rank(g, DefaultOptions())
		require.NoError(t, err, "case %d", i)
		require.True(t, g.Feasible(), "case %d", i)
		assert.Equal(t, want, stats.TotalLength, "case %d", i)
	}
}

func TestRank_OptimalityCertificate(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 25; i++ {
		g := randomDAG(rng, 5+rng.IntN(30), 10+rng.IntN(40), 3, 5)

		s, stats, err := run(g, DefaultOptions())
		require.NoError(t, err, "case %d", i)
		require.False(t, stats.Capped)

		n := g.NodeCount()
		require.Len(t, s.treeEdges, n-1, "case %d", i)
		for _, e := range s.treeEdges {
			assert.Zero(t, g.Slack(e), "case %d: tree edge %d not tight", i, e)
			assert.GreaterOrEqual(t, s.cut[e], 0, "case %d: tree edge %d", i, e)
			assert.Equal(t, directCutValue(s, e), s.cut[e], "case %d: cut value of %d", i, e)
		}
		assertIntervals(t, s)
	}
}

// directCutValue recomputes the cut value of tree edge e from its definition:
// weights of edges from the tail component to the head component minus
// weights of edges going the other way.
func directCutValue(s *session, e int) int {
	g := s.g
	tailSide := make([]bool, g.NodeCount())
	stack := []int{g.edges[e].tail}
	tailSide[g.edges[e].tail] = true
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit := func(te, w int) {
			if te != e && !tailSide[w] {
				tailSide[w] = true
				stack = append(stack, w)
			}
		}
		for _, te := range s.treeOut[v] {
			visit(te, g.edges[te].head)
		}
		for _, te := range s.treeIn[v] {
			visit(te, g.edges[te].tail)
		}
	}

	cut := 0
	for i := range g.edges {
		ed := &g.edges[i]
		switch {
		case tailSide[ed.tail] && !tailSide[ed.head]:
			cut += ed.weight
		case !tailSide[ed.tail] && tailSide[ed.head]:
			cut -= ed.weight
		}
	}
	return cut
}

// assertIntervals checks that lim is a postorder numbering of the tree and
// that every child interval nests inside its parent's.
func assertIntervals(t *testing.T, s *session) {
	t.Helper()
	g := s.g
	seen := make(map[int]bool)
	for v := range g.nodes {
		seen[s.lim[v]] = true
		e := s.par[v]
		if e < 0 {
			continue
		}
		p := g.edges[e].tail
		if p == v {
			p = g.edges[e].head
		}
		assert.LessOrEqual(t, s.low[p], s.low[v])
		assert.Less(t, s.lim[v], s.lim[p])
		assert.True(t, inside(s.low[p], s.lim[v], s.lim[p]))
	}
	for i := 1; i <= len(g.nodes); i++ {
		assert.True(t, seen[i], "lim %d missing", i)
	}
}

// randomDAG returns a connected acyclic graph on n nodes with roughly m
// edges. Edges follow a random topological order so node indices say
// nothing about direction.
func randomDAG(rng *rand.Rand, n, m, maxMinLen, maxWeight int) *Graph {
	g := NewGraph()
	for i := 0; i < n; i++ {
		_, _ = g.AddNode(false)
	}
	order := rng.Perm(n)
	for i := 1; i < n; i++ {
		j := rng.IntN(i)
		_, _ = g.AddEdge(order[j], order[i], rng.IntN(maxMinLen+1), rng.IntN(maxWeight+1))
	}
	for k := n - 1; k < m && n > 1; k++ {
		a, b := rng.IntN(n), rng.IntN(n)
		if a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		_, _ = g.AddEdge(order[a], order[b], rng.IntN(maxMinLen+1), rng.IntN(maxWeight+1))
	}
	return g
}

func (g *Graph) clone() *Graph {
	c := NewGraph()
	for _, nd := range g.nodes {
		_, _ = c.AddLabeledNode(nd.label, nd.virtual)
	}
	for _, ed := range g.edges {
		_, _ = c.AddEdge(ed.tail, ed.head, ed.minlen, ed.weight)
	}
	return c
}

// bruteForce enumerates every ranking in [0, sum of minlen] and returns the
// smallest total length among feasible ones.
func bruteForce(g *Graph) int64 {
	bound := 0
	for _, ed := range g.edges {
		bound += ed.minlen
	}
	n := g.NodeCount()
	ranks := make([]int, n)
	best := int64(-1)
	var walk func(i int)
	walk = func(i int) {
		if i == n {
			var total int64
			for _, ed := range g.edges {
				l := ranks[ed.head] - ranks[ed.tail]
				if l < ed.minlen {
					return
				}
				total += int64(ed.weight) * int64(l)
			}
			if best < 0 || total < best {
				best = total
			}
			return
		}
		for r := 0; r <= bound; r++ {
			ranks[i] = r
			walk(i + 1)
		}
	}
	walk(0)
	return best
}
