package layout

import "sort"

// orderRanks reduces edge crossings with repeated barycenter sweeps.
// Each sweep reorders every rank by the mean position of its neighbors in
// the fixed adjacent rank (downward pass uses parents, upward pass uses
// children). After each full sweep the total crossing count is measured and
// the best ordering seen so far is kept, so the result never regresses
// below the initial deterministic order.
func (lg *layered) orderRanks() {
	if len(lg.rows) < 2 {
		return
	}

	best := cloneRows(lg.rows)
	bestCrossings := lg.totalCrossings()
	if bestCrossings == 0 {
		return
	}

	for sweep := 0; sweep < orderingSweeps; sweep++ {
		// Downward: order each rank by parent barycenters.
		for r := 1; r < len(lg.rows); r++ {
			lg.sortByBarycenter(r, r-1, lg.parents)
		}
		// Upward: order each rank by child barycenters.
		for r := len(lg.rows) - 2; r >= 0; r-- {
			lg.sortByBarycenter(r, r+1, lg.children)
		}

		crossings := lg.totalCrossings()
		if crossings < bestCrossings {
			bestCrossings = crossings
			best = cloneRows(lg.rows)
			if crossings == 0 {
				break
			}
		}
	}
	lg.rows = best
}

// sortByBarycenter stably reorders row r by the average position of each
// node's neighbors in the adjacent (already ordered) rank. Nodes without
// neighbors keep their relative position via their current index.
func (lg *layered) sortByBarycenter(r, adj int, neighbors map[string][]string) {
	adjPos := posMap(lg.rows[adj])
	row := lg.rows[r]

	type keyed struct {
		id  string
		key float64
	}
	keys := make([]keyed, len(row))
	for i, id := range row {
		sum, count := 0.0, 0
		for _, nb := range neighbors[id] {
			if p, ok := adjPos[nb]; ok {
				sum += float64(p)
				count++
			}
		}
		if count == 0 {
			keys[i] = keyed{id: id, key: float64(i)}
		} else {
			keys[i] = keyed{id: id, key: sum / float64(count)}
		}
	}

	sort.SliceStable(keys, func(a, b int) bool { return keys[a].key < keys[b].key })
	for i, k := range keys {
		row[i] = k.id
	}
}

// totalCrossings sums the edge crossings between every pair of consecutive
// ranks for the current ordering.
func (lg *layered) totalCrossings() int {
	total := 0
	for r := 0; r < len(lg.rows)-1; r++ {
		total += lg.layerCrossings(lg.rows[r], lg.rows[r+1])
	}
	return total
}

// layerCrossings counts crossings between two adjacent ranks using a
// Fenwick tree for O(E log V) inversion counting. Two edges (u1,v1) and
// (u2,v2) cross iff pos(u1) < pos(u2) and pos(v1) > pos(v2).
func (lg *layered) layerCrossings(upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	lowerPos := posMap(lower)

	type edge struct{ upper, lower int }
	edges := make([]edge, 0, len(upper)*2)
	for i, id := range upper {
		for _, child := range lg.children[id] {
			if p, ok := lowerPos[child]; ok {
				edges = append(edges, edge{i, p})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	sort.Slice(edges, func(a, b int) bool {
		if edges[a].upper != edges[b].upper {
			return edges[a].upper < edges[b].upper
		}
		return edges[a].lower < edges[b].lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}

func posMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
