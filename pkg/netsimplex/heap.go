package netsimplex

// subtree is a tight subtree found while building the initial feasible tree.
type subtree struct {
	rep       int // some node of the subtree
	size      int // number of nodes
	heapIndex int // -1 once extracted from the heap
	par       int // union-find parent, itself for roots
}

// forest is the union-find over tight subtrees. member maps each node to the
// subtree it was first discovered in.
type forest struct {
	trees  []subtree
	member []int
}

func newForest(n int) *forest {
	f := &forest{member: make([]int, n)}
	for v := range f.member {
		f.member[v] = -1
	}
	return f
}

func (f *forest) add(rep int) int {
	t := len(f.trees)
	f.trees = append(f.trees, subtree{rep: rep, par: t})
	return t
}

// find returns the root subtree of node v, halving paths on the way.
func (f *forest) find(v int) int {
	t := f.member[v]
	for f.trees[t].par != t {
		p := f.trees[t].par
		f.trees[t].par = f.trees[p].par
		t = p
	}
	return t
}

// union merges two root subtrees. The root that is still in the heap wins so
// that its heap slot stays valid.
func (f *forest) union(t0, t1 int) int {
	if t0 == t1 {
		return t0
	}
	a, b := &f.trees[t0], &f.trees[t1]
	r := t1
	switch {
	case b.heapIndex == -1:
		r = t0
	case a.heapIndex == -1:
		r = t1
	case b.size < a.size:
		r = t0
	}
	size := a.size + b.size
	a.par, b.par = r, r
	f.trees[r].size = size
	return r
}

// subtreeHeap is a binary min-heap of subtree indices keyed by size. Each
// subtree records its own slot in heapIndex.
type subtreeHeap struct {
	f   *forest
	elt []int
}

func newSubtreeHeap(f *forest) *subtreeHeap {
	h := &subtreeHeap{f: f, elt: make([]int, len(f.trees))}
	for i := range h.elt {
		h.elt[i] = i
		f.trees[i].heapIndex = i
	}
	for i := len(h.elt)/2 - 1; i >= 0; i-- {
		h.down(i)
	}
	return h
}

func (h *subtreeHeap) Len() int { return len(h.elt) }

func (h *subtreeHeap) less(i, j int) bool {
	return h.f.trees[h.elt[i]].size < h.f.trees[h.elt[j]].size
}

func (h *subtreeHeap) swap(i, j int) {
	h.elt[i], h.elt[j] = h.elt[j], h.elt[i]
	h.f.trees[h.elt[i]].heapIndex = i
	h.f.trees[h.elt[j]].heapIndex = j
}

// down restores the heap below slot i after the element there grew.
func (h *subtreeHeap) down(i int) {
	n := len(h.elt)
	for {
		smallest := i
		if l := 2*i + 1; l < n && h.less(l, smallest) {
			smallest = l
		}
		if r := 2*i + 2; r < n && h.less(r, smallest) {
			smallest = r
		}
		if smallest == i {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}

// extractMin removes and returns the smallest subtree.
func (h *subtreeHeap) extractMin() int {
	last := len(h.elt) - 1
	h.swap(0, last)
	t := h.elt[last]
	h.elt = h.elt[:last]
	h.f.trees[t].heapIndex = -1
	if len(h.elt) > 0 {
		h.down(0)
	}
	return t
}
