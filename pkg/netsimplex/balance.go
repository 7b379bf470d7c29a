package netsimplex

import "sort"

// normalize shifts all ranks so that the smallest rank of a non-virtual node
// is zero and returns the resulting maximum non-virtual rank. Graphs without
// non-virtual nodes are left alone.
func (s *session) normalize() (maxRank int, ok bool) {
	g := s.g
	minRank := 0
	for v := range g.nodes {
		if g.nodes[v].virtual {
			continue
		}
		r := g.nodes[v].rank
		if !ok {
			minRank, maxRank, ok = r, r, true
			continue
		}
		minRank = min(minRank, r)
		maxRank = max(maxRank, r)
	}
	if !ok {
		return 0, false
	}
	for v := range g.nodes {
		g.nodes[v].rank -= minRank
	}
	return maxRank - minRank, true
}

// balanceLeftRight moves the lower side of every zero cut-value tree edge to
// the middle of the slack available to it. Moving such a side does not change
// the total length.
func (s *session) balanceLeftRight() {
	g := s.g
	for _, e := range s.treeEdges {
		if s.cut[e] != 0 {
			continue
		}
		f := s.enterEdge(e)
		if f < 0 {
			continue
		}
		delta := g.Slack(f)
		if delta <= 1 {
			continue
		}
		ed := &g.edges[e]
		if s.lim[ed.tail] < s.lim[ed.head] {
			s.rerank(ed.tail, e, delta/2)
		} else {
			s.rerank(ed.head, e, -delta/2)
		}
	}
}

// balanceTopBottom normalizes the ranks and then moves every non-virtual node
// whose in-weight equals its out-weight within the window allowed by its
// neighbours: to the least populated rank, or to the window bound selected
// by Options.Adjust.
func (s *session) balanceTopBottom() {
	g := s.g
	maxRank, ok := s.normalize()
	if !ok {
		return
	}
	adj := s.opts.Adjust

	switch adj {
	case AdjustMin:
		for v := range g.nodes {
			if !g.nodes[v].virtual && len(g.nodes[v].in) == 0 {
				g.nodes[v].rank = 0
			}
		}
	case AdjustMax:
		for v := range g.nodes {
			if !g.nodes[v].virtual && len(g.nodes[v].out) == 0 {
				g.nodes[v].rank = maxRank
			}
		}
	}

	order := make([]int, len(g.nodes))
	for v := range order {
		order[v] = v
	}
	sort.SliceStable(order, func(i, j int) bool {
		ri, rj := g.nodes[order[i]].rank, g.nodes[order[j]].rank
		if adj == AdjustMax {
			return ri > rj
		}
		return ri < rj
	})

	population := make([]int, maxRank+1)
	for _, v := range order {
		if !g.nodes[v].virtual {
			population[g.nodes[v].rank]++
		}
	}

	for _, v := range order {
		nd := &g.nodes[v]
		if nd.virtual {
			continue
		}
		inWeight, outWeight := 0, 0
		low, high := 0, maxRank
		for _, e := range nd.in {
			ed := &g.edges[e]
			inWeight += ed.weight
			low = max(low, g.nodes[ed.tail].rank+ed.minlen)
		}
		for _, e := range nd.out {
			ed := &g.edges[e]
			outWeight += ed.weight
			high = min(high, g.nodes[ed.head].rank-ed.minlen)
		}
		if inWeight != outWeight {
			continue
		}
		switch adj {
		case AdjustMin:
			nd.rank = low
		case AdjustMax:
			nd.rank = high
		default:
			choice := low
			for r := low + 1; r <= high; r++ {
				if population[r] < population[choice] {
					choice = r
				}
			}
			if choice < 0 || choice > maxRank {
				continue
			}
			population[nd.rank]--
			population[choice]++
			nd.rank = choice
		}
	}
}
