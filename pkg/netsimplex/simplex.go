package netsimplex

import "math"

// leaveEdge picks a tree edge with negative cut value. The search resumes
// where the previous one stopped, wraps around once, and settles for the most
// negative of the first searchSize candidates it sees. It returns -1 when the
// tree is optimal.
func (s *session) leaveEdge() int {
	best, cnt := -1, 0
	consider := func(f int) bool {
		if s.cut[f] >= 0 {
			return false
		}
		if best < 0 || s.cut[best] > s.cut[f] {
			best = f
		}
		cnt++
		return cnt >= s.searchSize
	}

	start := s.searchIndex
	for ; s.searchIndex < len(s.treeEdges); s.searchIndex++ {
		if consider(s.treeEdges[s.searchIndex]) {
			return best
		}
	}
	if start > 0 {
		for s.searchIndex = 0; s.searchIndex < start; s.searchIndex++ {
			if consider(s.treeEdges[s.searchIndex]) {
				return best
			}
		}
	}
	return best
}

// enterEdge returns the minimum-slack non-tree edge that reconnects the two
// components left after removing tree edge e, oriented the same way across
// the cut as e. It returns -1 when no such edge exists.
func (s *session) enterEdge(e int) int {
	ed := &s.g.edges[e]
	v, outsearch := ed.head, true
	if s.lim[ed.tail] < s.lim[ed.head] {
		v, outsearch = ed.tail, false
	}
	s.enter = -1
	s.slack = math.MaxInt
	s.lowBound = s.low[v]
	s.limBound = s.lim[v]
	s.dfsEnter(v, outsearch)
	return s.enter
}

// dfsEnter walks the subtree below v looking for edges that leave it (out
// edges when out is set, in-edges otherwise). Tree edges pointing the other
// way are only followed while no tight candidate has been found.
func (s *session) dfsEnter(v int, out bool) {
	g := s.g
	type frame struct {
		v     int
		i     int
		phase int
	}

	stack := []frame{{v: v}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		u := top.v

		var adj, treeBack []int
		if out {
			adj, treeBack = g.nodes[u].out, s.treeIn[u]
		} else {
			adj, treeBack = g.nodes[u].in, s.treeOut[u]
		}

		if top.phase == 0 {
			if top.i >= len(adj) {
				top.phase, top.i = 1, 0
				continue
			}
			e := adj[top.i]
			top.i++
			w := g.edges[e].head
			if !out {
				w = g.edges[e].tail
			}
			if !s.isTree(e) {
				if !inside(s.lowBound, s.lim[w], s.limBound) {
					if sl := g.Slack(e); sl < s.slack || s.enter < 0 {
						s.enter = e
						s.slack = sl
					}
				}
			} else if s.lim[w] < s.lim[u] {
				stack = append(stack, frame{v: w})
			}
			continue
		}

		if top.i >= len(treeBack) || s.slack <= 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		e := treeBack[top.i]
		top.i++
		w := g.edges[e].tail
		if !out {
			w = g.edges[e].head
		}
		if s.lim[w] < s.lim[u] {
			stack = append(stack, frame{v: w})
		}
	}
}

// update pivots leaving edge e out of the tree and entering edge f in,
// shifting one side so that f becomes tight and adjusting cut values along
// the tree path between the endpoints of f.
func (s *session) update(e, f int) error {
	g := s.g
	ee, fe := &g.edges[e], &g.edges[f]

	if delta := g.Slack(f); delta > 0 {
		switch {
		case s.treeDegree(ee.tail) == 1:
			s.rerank(ee.tail, e, delta)
		case s.treeDegree(ee.head) == 1:
			s.rerank(ee.head, e, -delta)
		case s.lim[ee.tail] < s.lim[ee.head]:
			s.rerank(ee.tail, e, delta)
		default:
			s.rerank(ee.head, e, -delta)
		}
	}

	cutvalue := s.cut[e]
	lca, err := s.treeUpdate(fe.tail, fe.head, cutvalue, true)
	if err != nil {
		return err
	}
	other, err := s.treeUpdate(fe.head, fe.tail, cutvalue, false)
	if err != nil {
		return err
	}
	if other != lca {
		return internalf("mismatched lca %d and %d while entering edge %d", lca, other, f)
	}

	lcaLow := s.low[lca]
	if err := s.invalidatePath(lca, fe.head); err != nil {
		return err
	}
	if err := s.invalidatePath(lca, fe.tail); err != nil {
		return err
	}

	s.cut[f] = -cutvalue
	s.cut[e] = 0
	s.exchangeTreeEdges(e, f)
	s.dfsRange(lca, s.par[lca], lcaLow)
	return nil
}

func (s *session) treeDegree(v int) int {
	return len(s.treeIn[v]) + len(s.treeOut[v])
}

// rerank subtracts delta from every node on v's side of tree edge e.
func (s *session) rerank(v, e, delta int) {
	g := s.g
	type item struct{ v, skip int }

	stack := []item{{v: v, skip: e}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		g.nodes[it.v].rank -= delta
		for _, te := range s.treeIn[it.v] {
			if te != it.skip {
				w := g.edges[te].tail
				stack = append(stack, item{v: w, skip: s.par[w]})
			}
		}
		for _, te := range s.treeOut[it.v] {
			if te != it.skip {
				w := g.edges[te].head
				stack = append(stack, item{v: w, skip: s.par[w]})
			}
		}
	}
}

// treeUpdate climbs from v until it reaches a node whose subtree contains w,
// adding cutvalue to the cut value of each parent edge passed on the way when
// the edge points in direction dir and subtracting it otherwise. It returns
// the node where the climb stopped.
func (s *session) treeUpdate(v, w, cutvalue int, dir bool) (int, error) {
	g := s.g
	for !inside(s.low[v], s.lim[w], s.lim[v]) {
		e := s.par[v]
		if e < 0 {
			return -1, internalf("tree root %d does not contain node %d", v, w)
		}
		ed := &g.edges[e]
		d := dir
		if v != ed.tail {
			d = !dir
		}
		if d {
			s.cut[e] += cutvalue
		} else {
			s.cut[e] -= cutvalue
		}
		if s.lim[ed.tail] > s.lim[ed.head] {
			v = ed.tail
		} else {
			v = ed.head
		}
	}
	return v, nil
}

// invalidatePath clears the low bound of every node on the tree path from v
// up to lca so that the next dfsRange renumbers them.
func (s *session) invalidatePath(lca, v int) error {
	for s.low[v] != -1 {
		s.low[v] = -1
		e := s.par[v]
		if e < 0 {
			return nil
		}
		if s.lim[v] >= s.lim[lca] {
			if v != lca {
				return internalf("path from node %d skipped over lca %d", v, lca)
			}
			return nil
		}
		ed := &s.g.edges[e]
		if s.lim[ed.tail] > s.lim[ed.head] {
			v = ed.tail
		} else {
			v = ed.head
		}
	}
	return nil
}

// exchangeTreeEdges replaces tree edge e by f, reusing its slot in treeEdges.
func (s *session) exchangeTreeEdges(e, f int) {
	g := s.g
	i := s.treeIndex[e]
	s.treeIndex[f] = i
	s.treeEdges[i] = f
	s.treeIndex[e] = -1

	ee := &g.edges[e]
	s.treeOut[ee.tail] = removeEdge(s.treeOut[ee.tail], e)
	s.treeIn[ee.head] = removeEdge(s.treeIn[ee.head], e)

	fe := &g.edges[f]
	s.treeOut[fe.tail] = append(s.treeOut[fe.tail], f)
	s.treeIn[fe.head] = append(s.treeIn[fe.head], f)
}

// removeEdge deletes e from list by moving the last entry into its slot.
func removeEdge(list []int, e int) []int {
	last := len(list) - 1
	for i, x := range list {
		if x == e {
			list[i] = list[last]
			break
		}
	}
	return list[:last]
}
