// Package octree implements a sparse, depth bounded octree addressed by locational codes,
// along with a fixed radius neighbor query over it. Nodes are created lazily as points are
// inserted and are never removed; the whole tree is held in a single arena.
package octree

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/poissondisk/utils"
)

// MaxDepth is the deepest tree supported by the 32 bit locational codes.
const MaxDepth = 30

// Point is anything that can be stored in an octree. Entries are compared by identity, so
// pointer payloads at the same position remain distinct.
type Point interface {
	comparable
	Position() r3.Vector
}

// Octree is a sparse octree whose root sits at the maximum depth and whose leaves sit at
// depth zero. Only leaves hold points. It is not safe to add points concurrently, nor while
// queries are running.
type Octree[T Point] struct {
	logger golog.Logger

	nodes     []Node[T]
	depth     uint
	origin    r3.Vector
	size      float64
	numPoints int

	// number of nodes created at each depth
	cells []int
}

// New creates an empty octree with the given maximum depth. It must be initialized before
// points can be added.
func New[T Point](depth uint, logger golog.Logger) (*Octree[T], error) {
	if depth > MaxDepth {
		return nil, errors.Errorf("invalid depth (%d) for octree, max is %d", depth, MaxDepth)
	}
	return &Octree[T]{
		logger: logger,
		depth:  depth,
	}, nil
}

// Initialize allocates the root covering the cube [origin, origin+size) on each axis.
// Any previously inserted points are dropped.
func (o *Octree[T]) Initialize(origin r3.Vector, size float64) error {
	if !(size > 0) || math.IsInf(size, 0) {
		return errors.Errorf("invalid side length (%.2f) for octree", size)
	}
	o.origin = origin
	o.size = size
	o.numPoints = 0
	o.cells = make([]int, o.depth+1)
	o.nodes = []Node[T]{{
		Origin:   origin,
		Size:     size,
		Depth:    o.depth,
		Children: noChildren,
		Parent:   NoNode,
	}}
	o.cells[o.depth] = 1
	return nil
}

// AddPoint inserts p into the leaf containing its position, creating the nodes along the
// way as needed.
func (o *Octree[T]) AddPoint(p T) error {
	if len(o.nodes) == 0 {
		return errors.New("octree must be initialized before adding points")
	}
	loc, ok := o.locationalCode(p.Position())
	if !ok {
		return errors.New("error point is outside the bounds of this octree")
	}

	id := o.Root()
	for d := o.depth; d > 0; d-- {
		i := childIndex(loc, d-1)
		child := o.nodes[id].Children[i]
		if child == NoNode {
			child = o.newChild(id, i)
		}
		id = child
	}
	leaf := &o.nodes[id]
	leaf.Points = append(leaf.Points, p)
	o.numPoints++
	return nil
}

// AddPoints inserts the points in order and returns the number of points held by the tree.
// It stops at the first point that cannot be inserted.
func (o *Octree[T]) AddPoints(points []T) (int, error) {
	for i, p := range points {
		if err := o.AddPoint(p); err != nil {
			return o.numPoints, errors.Wrapf(err, "point %d at %v", i, p.Position())
		}
	}
	return o.numPoints, nil
}

func (o *Octree[T]) newChild(parentID NodeID, i uint8) NodeID {
	parent := o.nodes[parentID]
	half := parent.Size / 2
	depth := parent.Depth - 1
	bit := uint32(1) << depth

	loc := parent.Loc
	origin := parent.Origin
	if i&4 != 0 {
		loc[0] |= bit
		origin.X += half
	}
	if i&2 != 0 {
		loc[1] |= bit
		origin.Y += half
	}
	if i&1 != 0 {
		loc[2] |= bit
		origin.Z += half
	}

	id := NodeID(len(o.nodes))
	o.nodes = append(o.nodes, Node[T]{
		Origin:   origin,
		Size:     half,
		Depth:    depth,
		Loc:      loc,
		Octant:   i,
		Children: noChildren,
		Parent:   parentID,
	})
	o.nodes[parentID].Children[i] = id
	o.cells[depth]++
	return id
}

// locationalCode returns the per axis leaf cell codes of v, or false if v lies outside
// the root cube.
func (o *Octree[T]) locationalCode(v r3.Vector) ([3]uint32, bool) {
	var loc [3]uint32
	cells := utils.Pow2(o.depth)
	for axis, c := range [3]float64{v.X, v.Y, v.Z} {
		lo := component(o.origin, axis)
		if !(c >= lo && c < lo+o.size) {
			return loc, false
		}
		code := math.Floor((c - lo) / o.size * cells)
		// rounding may land exactly on the upper face
		if code >= cells {
			code = cells - 1
		}
		loc[axis] = uint32(code)
	}
	return loc, true
}

// childIndex returns which child of a node at depth level+1 contains the codes.
func childIndex(loc [3]uint32, level uint) uint8 {
	x := (loc[0] >> level) & 1
	y := (loc[1] >> level) & 1
	z := (loc[2] >> level) & 1
	return uint8(x<<2 | y<<1 | z)
}

func component(v r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Root returns the root node, or NoNode if the tree has not been initialized.
func (o *Octree[T]) Root() NodeID {
	if len(o.nodes) == 0 {
		return NoNode
	}
	return 0
}

// Node returns the node with the given id. The pointer is only valid until the next
// insertion.
func (o *Octree[T]) Node(id NodeID) *Node[T] {
	return &o.nodes[id]
}

// Child returns the i-th child of a node, or NoNode if it does not exist.
func (o *Octree[T]) Child(id NodeID, i int) NodeID {
	return o.nodes[id].Children[i]
}

// Parent returns the parent of a node, or NoNode for the root.
func (o *Octree[T]) Parent(id NodeID) NodeID {
	return o.nodes[id].Parent
}

// Depth returns the depth of the root.
func (o *Octree[T]) Depth() uint {
	return o.depth
}

// Origin returns the low corner of the root cube.
func (o *Octree[T]) Origin() r3.Vector {
	return o.origin
}

// Size returns the side length of the root cube.
func (o *Octree[T]) Size() float64 {
	return o.size
}

// NumPoints returns the number of points inserted.
func (o *Octree[T]) NumPoints() int {
	return o.numPoints
}

// NumNodes returns the number of nodes in the arena.
func (o *Octree[T]) NumNodes() int {
	return len(o.nodes)
}

// CellSize returns the side length of the nodes at the given depth.
func (o *Octree[T]) CellSize(depth uint) float64 {
	return math.Ldexp(o.size, int(depth)-int(o.depth))
}

// Nodes returns the descendants of start, start included, that sit at the given depth.
func (o *Octree[T]) Nodes(depth uint, start NodeID) []NodeID {
	var ids []NodeID
	o.walk(start, depth, func(id NodeID) {
		ids = append(ids, id)
	})
	return ids
}

// BucketedNodes returns the same nodes as Nodes partitioned by octant index. Two nodes of
// the same bucket are never adjacent, not even diagonally.
func (o *Octree[T]) BucketedNodes(depth uint, start NodeID) [8][]NodeID {
	var buckets [8][]NodeID
	o.walk(start, depth, func(id NodeID) {
		octant := o.nodes[id].Octant
		buckets[octant] = append(buckets[octant], id)
	})
	return buckets
}

// Leaves returns the leaves under start.
func (o *Octree[T]) Leaves(start NodeID) []NodeID {
	return o.Nodes(0, start)
}

// LeafPoints calls fn for every point under start, in tree order then storage order. If fn
// returns false, iteration stops.
func (o *Octree[T]) LeafPoints(start NodeID, fn func(p T) bool) {
	o.leafPoints(start, fn)
}

func (o *Octree[T]) leafPoints(id NodeID, fn func(p T) bool) bool {
	if id == NoNode {
		return true
	}
	n := &o.nodes[id]
	if n.IsLeaf() {
		for _, p := range n.Points {
			if !fn(p) {
				return false
			}
		}
		return true
	}
	for _, child := range n.Children {
		if !o.leafPoints(child, fn) {
			return false
		}
	}
	return true
}

// walk visits the nodes at depth under id, children in index order.
func (o *Octree[T]) walk(id NodeID, depth uint, fn func(id NodeID)) {
	if id == NoNode {
		return
	}
	n := &o.nodes[id]
	switch {
	case n.Depth == depth:
		fn(id)
	case n.Depth > depth:
		for _, child := range n.Children {
			o.walk(child, depth, fn)
		}
	}
}

// descend follows loc from the root toward depth and returns the deepest node reached.
func (o *Octree[T]) descend(loc [3]uint32, depth uint) NodeID {
	id := o.Root()
	if id == NoNode {
		return NoNode
	}
	for d := o.depth; d > depth; d-- {
		child := o.nodes[id].Children[childIndex(loc, d-1)]
		if child == NoNode {
			break
		}
		id = child
	}
	return id
}
