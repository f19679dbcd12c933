package octree

import "github.com/golang/geo/r3"

// NodeID addresses a node in the arena of its octree.
type NodeID int32

// NoNode is the id of a node that does not exist.
const NoNode NodeID = -1

var noChildren = [8]NodeID{NoNode, NoNode, NoNode, NoNode, NoNode, NoNode, NoNode, NoNode}

// Node is a cube of the octree. Its locational codes have the bits above its depth set to
// its position in the grid of nodes at that depth, and the bits below cleared. The child
// index of a node, and its octant, is x<<2 | y<<1 | z of the code bits at the node's depth.
type Node[T Point] struct {
	Origin   r3.Vector
	Size     float64
	Depth    uint
	Loc      [3]uint32
	Octant   uint8
	Children [8]NodeID
	Parent   NodeID

	// Points is only set for leaves.
	Points []T
}

// IsLeaf reports whether the node sits at depth zero.
func (n *Node[T]) IsLeaf() bool {
	return n.Depth == 0
}

// NumPoints returns the number of points held by a leaf.
func (n *Node[T]) NumPoints() int {
	return len(n.Points)
}

// Contains reports whether v lies within the half open cube of the node.
func (n *Node[T]) Contains(v r3.Vector) bool {
	return v.X >= n.Origin.X && v.X < n.Origin.X+n.Size &&
		v.Y >= n.Origin.Y && v.Y < n.Origin.Y+n.Size &&
		v.Z >= n.Origin.Z && v.Z < n.Origin.Z+n.Size
}
