// Package spatial implements the Proximity Index: a uniform spatial
// hash rebuilt in full every tick, answering range queries in sub-quadratic
// time at the simulator's target scale (<=300 nodes).
package spatial

import (
	"sort"

	"github.com/jihwankim/vanet-sim/pkg/model"
)

type cellKey struct {
	cx, cy int64
}

// Index is a uniform spatial hash keyed by floor(x/cellSize), floor(y/cellSize).
// It is rebuilt from scratch every tick via Rebuild; there is no incremental
// update path — full rebuild per tick is sufficient at the target scale.
type Index struct {
	cellSize float64
	cells    map[cellKey][]model.NodeId
	pos      map[model.NodeId]model.Point
}

// New creates an index bucketed by cellSize (conventionally the radio range R).
func New(cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Index{cellSize: cellSize}
}

func (idx *Index) keyFor(p model.Point) cellKey {
	return cellKey{cx: floorDiv(p.X, idx.cellSize), cy: floorDiv(p.Y, idx.cellSize)}
}

func floorDiv(v, size float64) int64 {
	q := v / size
	i := int64(q)
	if q < 0 && float64(i) != q {
		i--
	}
	return i
}

// Rebuild discards the previous bucketing and re-indexes the given
// positions. Positions is keyed by NodeId so duplicate coordinates across
// distinct nodes are handled correctly: degenerate inputs (coincident
// positions, a single node) must not duplicate or omit pairs.
func (idx *Index) Rebuild(positions map[model.NodeId]model.Point) {
	idx.cells = make(map[cellKey][]model.NodeId, len(positions))
	idx.pos = make(map[model.NodeId]model.Point, len(positions))
	for id, p := range positions {
		idx.pos[id] = p
		k := idx.keyFor(p)
		idx.cells[k] = append(idx.cells[k], id)
	}
}

// NeighborsWithin returns every indexed node within radius r of point,
// sorted by NodeId for deterministic iteration.
func (idx *Index) NeighborsWithin(point model.Point, r float64) []model.NodeId {
	center := idx.keyFor(point)
	seen := make(map[model.NodeId]struct{})
	var out []model.NodeId
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			k := cellKey{cx: center.cx + dx, cy: center.cy + dy}
			for _, id := range idx.cells[k] {
				if _, dup := seen[id]; dup {
					continue
				}
				if idx.pos[id].Distance(point) <= r {
					seen[id] = struct{}{}
					out = append(out, id)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Pair is an unordered pair of node ids with NodeA < NodeB, so that a pair
// is represented exactly once regardless of scan order.
type Pair struct {
	NodeA, NodeB model.NodeId
}

// PairsWithin returns every pair of distinct indexed nodes within radius r
// of each other, each pair reported exactly once even when the two nodes
// share identical coordinates.
func (idx *Index) PairsWithin(r float64) []Pair {
	seen := make(map[Pair]struct{})
	var out []Pair

	ids := make([]model.NodeId, 0, len(idx.pos))
	for id := range idx.pos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		p := idx.pos[id]
		center := idx.keyFor(p)
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				k := cellKey{cx: center.cx + dx, cy: center.cy + dy}
				for _, other := range idx.cells[k] {
					if other == id {
						continue
					}
					if idx.pos[other].Distance(p) > r {
						continue
					}
					a, b := id, other
					if b < a {
						a, b = b, a
					}
					pair := Pair{NodeA: a, NodeB: b}
					if _, dup := seen[pair]; dup {
						continue
					}
					seen[pair] = struct{}{}
					out = append(out, pair)
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].NodeA != out[j].NodeA {
			return out[i].NodeA < out[j].NodeA
		}
		return out[i].NodeB < out[j].NodeB
	})
	return out
}
