package netsimplex

// initRank assigns the longest-path ranking: sources get rank 0 and every
// other node the maximum of rank(tail)+minlen over its in-edges. Nodes are
// processed in topological order using the in-degree counters in priority.
func (s *session) initRank() error {
	g := s.g
	queue := make([]int, 0, len(g.nodes))
	for v := range g.nodes {
		if s.priority[v] == 0 {
			queue = append(queue, v)
		}
	}

	seen := 0
	for head := 0; head < len(queue); head++ {
		v := queue[head]
		seen++
		rank := 0
		for _, e := range g.nodes[v].in {
			ed := &g.edges[e]
			rank = max(rank, g.nodes[ed.tail].rank+ed.minlen)
		}
		g.nodes[v].rank = rank
		for _, e := range g.nodes[v].out {
			w := g.edges[e].head
			s.priority[w]--
			if s.priority[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	if seen != len(g.nodes) {
		for v := range g.nodes {
			if s.priority[v] > 0 {
				s.errorf("node not ranked", "node", g.Label(v), "pending", s.priority[v])
			}
		}
		return ErrCycle
	}
	return nil
}
