// Package layout assigns deterministic coordinates to a built access graph.
//
// The algorithm is a classic layered (hierarchical) layout:
//
//  1. Rank assignment: nodes are ranked by longest path from the sources
//     using a topological traversal (Kahn's algorithm), so every parent
//     sits strictly above its children.
//  2. Ordering: nodes within each rank are reordered by repeated barycenter
//     sweeps; candidate orderings are scored by total edge crossings
//     (counted with a Fenwick tree) and the best one is kept.
//  3. Coordinates: positions are derived from per-node dimensions plus
//     fixed inter-rank and inter-node gaps, with each rank centered.
//
// Assign is pure and deterministic: the same graph yields the same
// positions. It must be re-run whenever the node/edge set changes; nothing
// is repositioned incrementally.
package layout

import "github.com/permitscope/permitscope/pkg/vizgraph"

// Direction controls the rank axis.
type Direction string

const (
	// DirectionVertical stacks ranks top to bottom.
	DirectionVertical Direction = "vertical"
	// DirectionHorizontal stacks ranks left to right.
	DirectionHorizontal Direction = "horizontal"
)

// Spacing constants in layout units.
const (
	// RankGap is the gap between consecutive ranks.
	RankGap = 80.0
	// NodeGap is the gap between adjacent nodes within a rank.
	NodeGap = 40.0
)

// orderingSweeps is the number of barycenter down/up sweep pairs.
const orderingSweeps = 4

// Assign populates Position on every node of g and returns g. The input
// node structs are updated in place (they are owned by the current build
// pass). No-op on an empty node list.
func Assign(g vizgraph.Graph, dir Direction) vizgraph.Graph {
	if len(g.Nodes) == 0 {
		return g
	}
	if dir != DirectionHorizontal {
		dir = DirectionVertical
	}

	lg := newLayered(g)
	lg.orderRanks()
	lg.position(dir)
	return g
}

// layered is the internal working state for one layout run.
type layered struct {
	nodes    map[string]*vizgraph.Node
	children map[string][]string
	parents  map[string][]string
	ranks    map[string]int
	rows     [][]string // rank -> ordered node ids
}

func newLayered(g vizgraph.Graph) *layered {
	lg := &layered{
		nodes:    make(map[string]*vizgraph.Node, len(g.Nodes)),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
		ranks:    make(map[string]int, len(g.Nodes)),
	}
	order := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		lg.nodes[n.ID] = n
		order = append(order, n.ID)
	}
	for _, e := range g.Edges {
		if _, ok := lg.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := lg.nodes[e.Target]; !ok {
			continue
		}
		lg.children[e.Source] = append(lg.children[e.Source], e.Target)
		lg.parents[e.Target] = append(lg.parents[e.Target], e.Source)
	}
	lg.assignRanks(order)
	return lg
}

// assignRanks ranks nodes by longest path from the sources via a
// topological traversal. Input order fixes the initial in-rank order, which
// keeps the whole layout deterministic for identical builds.
func (lg *layered) assignRanks(order []string) {
	inDegree := make(map[string]int, len(order))
	queue := make([]string, 0, len(order))
	for _, id := range order {
		d := len(lg.parents[id])
		inDegree[id] = d
		if d == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, child := range lg.children[curr] {
			if r := lg.ranks[curr] + 1; r > lg.ranks[child] {
				lg.ranks[child] = r
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	maxRank := 0
	for _, id := range order {
		if lg.ranks[id] > maxRank {
			maxRank = lg.ranks[id]
		}
	}
	lg.rows = make([][]string, maxRank+1)
	for _, id := range order {
		r := lg.ranks[id]
		lg.rows[r] = append(lg.rows[r], id)
	}
}

// position assigns final coordinates from the ordered rows. Ranks are laid
// out along the direction axis using the tallest (or widest) node per rank;
// within a rank nodes are packed with NodeGap and centered around zero.
func (lg *layered) position(dir Direction) {
	offset := 0.0
	for _, row := range lg.rows {
		if len(row) == 0 {
			continue
		}

		extent := 0.0 // rank thickness along the direction axis
		span := 0.0   // total packed length across the rank
		for i, id := range row {
			n := lg.nodes[id]
			if dir == DirectionVertical {
				if n.Size.Height > extent {
					extent = n.Size.Height
				}
				span += n.Size.Width
			} else {
				if n.Size.Width > extent {
					extent = n.Size.Width
				}
				span += n.Size.Height
			}
			if i > 0 {
				span += NodeGap
			}
		}

		cursor := -span / 2
		for _, id := range row {
			n := lg.nodes[id]
			if dir == DirectionVertical {
				n.Position = vizgraph.Position{X: cursor, Y: offset}
				cursor += n.Size.Width + NodeGap
			} else {
				n.Position = vizgraph.Position{X: offset, Y: cursor}
				cursor += n.Size.Height + NodeGap
			}
		}
		offset += extent + RankGap
	}
}
