package octree

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/poissondisk/pointcloud"
)

// boundsMargin is how much larger than the cloud's extent the root cube is made.
const boundsMargin = 1.1

// Bounds is the root cube and depth of an octree sized for a cloud.
type Bounds struct {
	Origin r3.Vector
	Size   float64
	Depth  uint
}

// FitBounds sizes an octree for the cloud described by meta so that its leaf cells have a
// side of exactly minRadius. The root cube is grown from 1.1 times the largest extent up to
// the next power of two multiple of minRadius, and centered on the growth.
func FitBounds(meta pointcloud.MetaData, minRadius float64) (Bounds, error) {
	if meta.Count == 0 {
		return Bounds{}, errors.New("cannot fit octree bounds to an empty cloud")
	}
	if !(minRadius > 0) {
		return Bounds{}, errors.Errorf("invalid radius (%.4f) for octree bounds", minRadius)
	}

	extent := meta.MaxSideLength()
	if extent == 0 {
		extent = minRadius
	}
	size := boundsMargin * extent

	depth := 0
	if ratio := size / minRadius; ratio > 1 {
		depth = int(math.Ceil(math.Log2(ratio)))
	}
	if depth > MaxDepth {
		return Bounds{}, errors.Errorf("radius %g is too small for a cloud of extent %g", minRadius, extent)
	}

	adapted := math.Ldexp(minRadius, depth)
	margin := 0.5 * (adapted - size)
	minPt := meta.Min()
	return Bounds{
		Origin: r3.Vector{X: minPt.X - margin, Y: minPt.Y - margin, Z: minPt.Z - margin},
		Size:   adapted,
		Depth:  uint(depth),
	}, nil
}

// NewFitted creates an octree initialized with the bounds fitted to meta.
func NewFitted[T Point](meta pointcloud.MetaData, minRadius float64, logger golog.Logger) (*Octree[T], error) {
	bounds, err := FitBounds(meta, minRadius)
	if err != nil {
		return nil, err
	}
	tree, err := New[T](bounds.Depth, logger)
	if err != nil {
		return nil, err
	}
	if err := tree.Initialize(bounds.Origin, bounds.Size); err != nil {
		return nil, err
	}
	return tree, nil
}
