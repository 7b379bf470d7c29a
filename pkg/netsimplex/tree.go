package netsimplex

func (s *session) addTreeEdge(e int) error {
	if s.isTree(e) {
		return internalf("edge %d is already a tree edge", e)
	}
	ed := &s.g.edges[e]
	s.treeIndex[e] = len(s.treeEdges)
	s.treeEdges = append(s.treeEdges, e)
	s.treeOut[ed.tail] = append(s.treeOut[ed.tail], e)
	s.treeIn[ed.head] = append(s.treeIn[ed.head], e)
	return nil
}

// feasibleTree builds a spanning tree of tight edges, shifting ranks where
// needed, and then computes DFS intervals and cut values. It fails with
// ErrDisconnected when the graph has more than one component.
func (s *session) feasibleTree() error {
	n := len(s.g.nodes)
	f := newForest(n)
	for v := 0; v < n; v++ {
		if f.member[v] >= 0 {
			continue
		}
		t := f.add(v)
		size, err := s.tightSubtreeSearch(f, v, t)
		if err != nil {
			return err
		}
		f.trees[t].size = size
	}

	h := newSubtreeHeap(f)
	for h.Len() > 1 {
		t0 := h.extractMin()
		e := s.interTreeEdge(f, t0)
		if e < 0 {
			return ErrDisconnected
		}
		t1, err := s.mergeTrees(f, e)
		if err != nil {
			return err
		}
		if f.trees[t1].heapIndex < 0 {
			return internalf("merged subtree %d left the heap", t1)
		}
		h.down(f.trees[t1].heapIndex)
	}

	if len(s.treeEdges) != n-1 {
		return internalf("tight tree has %d edges, want %d", len(s.treeEdges), n-1)
	}
	s.initCutValues()
	return nil
}

// tightSubtreeSearch grows subtree t from v along zero-slack edges, in-edges
// before out-edges, and returns the number of nodes reached.
func (s *session) tightSubtreeSearch(f *forest, v, t int) (int, error) {
	g := s.g
	type frame struct{ v, i int }

	f.member[v] = t
	size := 1
	stack := []frame{{v: v}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		in, out := g.nodes[top.v].in, g.nodes[top.v].out
		if top.i >= len(in)+len(out) {
			stack = stack[:len(stack)-1]
			continue
		}
		var e, w int
		if top.i < len(in) {
			e = in[top.i]
			w = g.edges[e].tail
		} else {
			e = out[top.i-len(in)]
			w = g.edges[e].head
		}
		top.i++

		if s.isTree(e) || f.member[w] >= 0 || g.Slack(e) != 0 {
			continue
		}
		if err := s.addTreeEdge(e); err != nil {
			return size, err
		}
		f.member[w] = t
		size++
		stack = append(stack, frame{v: w})
	}
	return size, nil
}

// interTreeEdge finds the minimum-slack non-tree edge joining subtree t to
// another subtree. The walk follows tree edges without stepping back to the
// node it came from and stops descending once a tight candidate is known.
func (s *session) interTreeEdge(f *forest, t int) int {
	g := s.g
	type frame struct{ v, from, i int }

	rep := f.trees[t].rep
	ts := f.find(rep)
	best := -1
	stack := []frame{{v: rep, from: -1}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		out, in := g.nodes[top.v].out, g.nodes[top.v].in
		if top.i >= len(out)+len(in) {
			stack = stack[:len(stack)-1]
			continue
		}
		var e, w int
		if top.i < len(out) {
			e = out[top.i]
			w = g.edges[e].head
		} else {
			e = in[top.i-len(out)]
			w = g.edges[e].tail
		}
		top.i++
		v, from := top.v, top.from

		if s.isTree(e) {
			if w == from || (best >= 0 && g.Slack(best) == 0) {
				continue
			}
			stack = append(stack, frame{v: w, from: v})
			continue
		}
		if f.find(w) != ts && (best < 0 || g.Slack(e) < g.Slack(best)) {
			best = e
		}
	}
	return best
}

// mergeTrees makes e tight by shifting the subtree already extracted from the
// heap, adds e to the tree and unions the two subtrees.
func (s *session) mergeTrees(f *forest, e int) (int, error) {
	if s.isTree(e) {
		return -1, internalf("merge along tree edge %d", e)
	}
	ed := &s.g.edges[e]
	t0, t1 := f.find(ed.tail), f.find(ed.head)
	if f.trees[t0].heapIndex == -1 {
		if delta := s.g.Slack(e); delta != 0 {
			s.treeAdjust(f.trees[t0].rep, delta)
		}
	} else {
		if delta := -s.g.Slack(e); delta != 0 {
			s.treeAdjust(f.trees[t1].rep, delta)
		}
	}
	if err := s.addTreeEdge(e); err != nil {
		return -1, err
	}
	return f.union(t0, t1), nil
}

// treeAdjust adds delta to the rank of every node tree-connected to v.
func (s *session) treeAdjust(v, delta int) {
	g := s.g
	type item struct{ v, from int }

	stack := []item{{v: v, from: -1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		g.nodes[it.v].rank += delta
		for _, e := range s.treeIn[it.v] {
			if w := g.edges[e].tail; w != it.from {
				stack = append(stack, item{v: w, from: it.v})
			}
		}
		for _, e := range s.treeOut[it.v] {
			if w := g.edges[e].head; w != it.from {
				stack = append(stack, item{v: w, from: it.v})
			}
		}
	}
}
