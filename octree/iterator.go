package octree

import (
	"math"
	"slices"

	"github.com/golang/geo/r3"

	"go.viam.com/poissondisk/utils"
)

// Iterator answers fixed radius neighbor queries over an octree. Queries start from the
// node containing the query position at the active depth, whose cells are at least as
// large as the query ball's diameter, and scan that node plus the adjacent nodes the ball
// reaches into.
//
// An Iterator only reads the tree, so several may query the same tree concurrently as long
// as no points are being added.
type Iterator[T Point] struct {
	tree *Octree[T]

	radius   float64
	sqRadius float64
	depth    uint
}

// Neighbor is a query result along with its squared distance to the query position.
type Neighbor[T Point] struct {
	Point           T
	SquaredDistance float64
}

// NewIterator returns an iterator over tree querying at leaf depth, with a radius of one
// leaf cell.
func NewIterator[T Point](tree *Octree[T]) *Iterator[T] {
	it := &Iterator[T]{tree: tree}
	it.SetDepth(0)
	return it
}

// SetRadius sets the query radius and derives the active depth from it. It returns false
// and changes nothing if r is not positive or not smaller than the root cube.
func (it *Iterator[T]) SetRadius(r float64) bool {
	if !(r > 0) || r >= it.tree.size {
		return false
	}
	level := int(math.Floor(math.Log2(it.tree.size / (2 * r))))
	root := int(it.tree.depth)
	it.radius = r
	it.sqRadius = utils.Square(r)
	it.depth = uint(utils.ClampInt(root-level, 0, root))
	return true
}

// SetDepth sets the active depth and makes the radius the cell size at that depth. It
// returns false and changes nothing if d is deeper than the root.
func (it *Iterator[T]) SetDepth(d uint) bool {
	if d > it.tree.depth {
		return false
	}
	it.depth = d
	it.radius = it.tree.CellSize(d)
	it.sqRadius = utils.Square(it.radius)
	return true
}

// Radius returns the query radius.
func (it *Iterator[T]) Radius() float64 {
	return it.radius
}

// SquaredRadius returns the square of the query radius.
func (it *Iterator[T]) SquaredRadius() float64 {
	return it.sqRadius
}

// ActiveDepth returns the depth at which queries start.
func (it *Iterator[T]) ActiveDepth() uint {
	return it.depth
}

// Locate returns the node at the active depth containing q. If the subtree is sparse the
// deepest existing ancestor of that node is returned instead, so callers must check its
// depth. NoNode is returned if q lies outside the root cube.
func (it *Iterator[T]) Locate(q r3.Vector) NodeID {
	loc, ok := it.tree.locationalCode(q)
	if !ok {
		return NoNode
	}
	return it.tree.descend(loc, it.depth)
}

// Neighbors returns the points strictly within the radius of q. known may be the node
// containing q at the active depth, if the caller has it, or NoNode.
func (it *Iterator[T]) Neighbors(q r3.Vector, known NodeID) []T {
	var neighbors []T
	it.visit(q, known, func(p T, _ float64) bool {
		neighbors = append(neighbors, p)
		return true
	})
	return neighbors
}

// NeighborsWithDistances is like Neighbors but also returns the squared distance of each
// neighbor to q.
func (it *Iterator[T]) NeighborsWithDistances(q r3.Vector, known NodeID) ([]T, []float64) {
	var (
		neighbors []T
		distances []float64
	)
	it.visit(q, known, func(p T, sqDist float64) bool {
		neighbors = append(neighbors, p)
		distances = append(distances, sqDist)
		return true
	})
	return neighbors, distances
}

// SortedNeighbors returns the neighbors of q ordered by increasing squared distance.
// Neighbors at exactly the same squared distance are collapsed into the first one found.
func (it *Iterator[T]) SortedNeighbors(q r3.Vector, known NodeID) []Neighbor[T] {
	var neighbors []Neighbor[T]
	it.visit(q, known, func(p T, sqDist float64) bool {
		neighbors = append(neighbors, Neighbor[T]{Point: p, SquaredDistance: sqDist})
		return true
	})
	slices.SortStableFunc(neighbors, func(a, b Neighbor[T]) int {
		switch {
		case a.SquaredDistance < b.SquaredDistance:
			return -1
		case a.SquaredDistance > b.SquaredDistance:
			return 1
		default:
			return 0
		}
	})
	return slices.CompactFunc(neighbors, func(a, b Neighbor[T]) bool {
		return a.SquaredDistance == b.SquaredDistance
	})
}

// ContainsOnly reports whether every point within the radius of q is in exceptions.
func (it *Iterator[T]) ContainsOnly(q r3.Vector, known NodeID, exceptions map[T]struct{}) bool {
	only := true
	it.visit(q, known, func(p T, _ float64) bool {
		if _, ok := exceptions[p]; !ok {
			only = false
		}
		return only
	})
	return only
}

// visit calls fn for each point strictly within the radius of q until fn returns false.
func (it *Iterator[T]) visit(q r3.Vector, known NodeID, fn func(p T, sqDist float64) bool) {
	start := known
	if start == NoNode {
		start = it.Locate(q)
	}
	if start == NoNode {
		return
	}

	tree := it.tree
	node := tree.Node(start)
	level := node.Depth
	step := uint32(1) << level
	last := uint32(1)<<tree.depth - 1

	// up to three codes per axis: the node's own and the adjacent cells the ball reaches
	var codes [3][3]uint32
	var counts [3]int
	for axis := 0; axis < 3; axis++ {
		c := component(q, axis)
		lo := component(node.Origin, axis)
		code := node.Loc[axis]

		codes[axis][0] = code
		counts[axis] = 1
		if c-it.radius < lo && code > 0 {
			codes[axis][counts[axis]] = code - 1
			counts[axis]++
		}
		if c+it.radius > lo+node.Size && code+step-1 < last {
			codes[axis][counts[axis]] = code + step
			counts[axis]++
		}
	}

	for i := 0; i < counts[0]; i++ {
		for j := 0; j < counts[1]; j++ {
			for k := 0; k < counts[2]; k++ {
				loc := [3]uint32{codes[0][i], codes[1][j], codes[2][k]}
				id := tree.descend(loc, level)
				if id == NoNode || tree.nodes[id].Depth != level {
					continue
				}
				if !it.scan(id, q, fn) {
					return
				}
			}
		}
	}
}

func (it *Iterator[T]) scan(id NodeID, q r3.Vector, fn func(p T, sqDist float64) bool) bool {
	keepGoing := true
	it.tree.LeafPoints(id, func(p T) bool {
		sqDist := p.Position().Sub(q).Norm2()
		if sqDist < it.sqRadius {
			keepGoing = fn(p, sqDist)
		}
		return keepGoing
	})
	return keepGoing
}
