package pointcloud

import (
	"math/rand"

	"github.com/golang/geo/r3"
)

// MakeGridCloud creates a cloud of n*n*n unoriented samples laid out on a regular grid
// with the given spacing, starting at the origin.
func MakeGridCloud(n int, spacing float64) *Cloud {
	cloud := NewWithPrealloc(n * n * n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				cloud.Add(NewSample(r3.Vector{
					X: float64(x) * spacing,
					Y: float64(y) * spacing,
					Z: float64(z) * spacing,
				}), false)
			}
		}
	}
	return cloud
}

// MakeRandomCloud creates a cloud of n oriented samples drawn uniformly from the cube
// [0, side)^3. The normals all point up.
func MakeRandomCloud(n int, side float64, seed int64) *Cloud {
	//nolint:gosec
	rnd := rand.New(rand.NewSource(seed))
	cloud := NewWithPrealloc(n)
	for i := 0; i < n; i++ {
		cloud.Add(NewOrientedSample(
			r3.Vector{X: rnd.Float64() * side, Y: rnd.Float64() * side, Z: rnd.Float64() * side},
			r3.Vector{Z: 1},
		), true)
	}
	return cloud
}
