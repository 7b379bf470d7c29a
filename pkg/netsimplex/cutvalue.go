package netsimplex

// treeFrame is one level of an explicit-stack walk over tree edges, visiting
// tree out-edges before tree in-edges and never the parent edge.
type treeFrame struct {
	v   int
	par int // tree edge leading to v, -1 at the root
	i   int // cursor over treeOut then treeIn
	acc int // running DFS number
}

// nextChild advances f to its next child and returns the connecting tree
// edge and the child, or -1, -1 when all children were visited.
func (s *session) nextChild(f *treeFrame) (e, w int) {
	out, in := s.treeOut[f.v], s.treeIn[f.v]
	for f.i < len(out)+len(in) {
		if f.i < len(out) {
			e, w = out[f.i], s.g.edges[out[f.i]].head
		} else {
			j := f.i - len(out)
			e, w = in[j], s.g.edges[in[j]].tail
		}
		f.i++
		if e != f.par {
			return e, w
		}
	}
	return -1, -1
}

func (s *session) initCutValues() {
	s.dfsRangeInit(0)
	s.dfsCutval(0)
}

// dfsRangeInit sets par, low and lim for every node under root with a
// post-order numbering starting at 1: w is in the subtree of v exactly when
// low(v) <= lim(w) <= lim(v).
func (s *session) dfsRangeInit(root int) {
	s.par[root] = -1
	s.low[root] = 1
	stack := []treeFrame{{v: root, par: -1, acc: 1}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if e, w := s.nextChild(top); e >= 0 {
			s.par[w] = e
			s.low[w] = top.acc
			stack = append(stack, treeFrame{v: w, par: e, acc: top.acc})
			continue
		}
		s.lim[top.v] = top.acc
		next := top.acc + 1
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			stack[len(stack)-1].acc = next
		}
	}
}

// dfsRange renumbers the subtree of v after a pivot. Subtrees whose parent
// edge and low bound are unchanged keep their numbering and are skipped.
func (s *session) dfsRange(v, par, low int) {
	if s.par[v] == par && s.low[v] == low {
		return
	}
	s.par[v] = par
	s.low[v] = low
	stack := []treeFrame{{v: v, par: par, acc: low}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if e, w := s.nextChild(top); e >= 0 {
			if s.par[w] == e && s.low[w] == top.acc {
				top.acc = s.lim[w] + 1
				continue
			}
			s.par[w] = e
			s.low[w] = top.acc
			stack = append(stack, treeFrame{v: w, par: e, acc: top.acc})
			continue
		}
		s.lim[top.v] = top.acc
		next := top.acc + 1
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			stack[len(stack)-1].acc = next
		}
	}
}

// dfsCutval computes cut values bottom-up so that every edge below a node is
// known before the node's parent edge.
func (s *session) dfsCutval(root int) {
	stack := []treeFrame{{v: root, par: -1}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if e, w := s.nextChild(top); e >= 0 {
			stack = append(stack, treeFrame{v: w, par: e})
			continue
		}
		if top.par >= 0 {
			s.xCutval(top.par)
		}
		stack = stack[:len(stack)-1]
	}
}

// xCutval sets the cut value of tree edge f from the edges incident to its
// lower endpoint, whose other tree edges already carry their cut values.
func (s *session) xCutval(f int) {
	v, dir := s.g.edges[f].head, -1
	if t := s.g.edges[f].tail; s.par[t] == f {
		v, dir = t, 1
	}
	sum := 0
	for _, e := range s.g.nodes[v].out {
		sum += s.xVal(e, v, dir)
	}
	for _, e := range s.g.nodes[v].in {
		sum += s.xVal(e, v, dir)
	}
	s.cut[f] = sum
}

// xVal is the contribution of edge e, incident to v, to the cut value of the
// parent edge of v.
func (s *session) xVal(e, v, dir int) int {
	ed := &s.g.edges[e]
	other := ed.tail
	if other == v {
		other = ed.head
	}

	var rv int
	crossing := !inside(s.low[v], s.lim[other], s.lim[v])
	if crossing {
		rv = ed.weight
	} else {
		if s.isTree(e) {
			rv = s.cut[e]
		}
		rv -= ed.weight
	}

	d := -1
	if dir > 0 {
		if ed.head == v {
			d = 1
		}
	} else if ed.tail == v {
		d = 1
	}
	if crossing {
		d = -d
	}
	if d < 0 {
		rv = -rv
	}
	return rv
}
