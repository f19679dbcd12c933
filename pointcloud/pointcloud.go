// Package pointcloud defines the samples that are subsampled by the octree based
// selection, the metadata gathered while reading them, and the file formats they
// are read from and written to.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// Positions above or below these bounds cannot be stored without risking
// floating point lossiness in the LAS format.
const (
	maxPreciseFloat64 = float64(1 << 53)
	minPreciseFloat64 = -maxPreciseFloat64
)

// MetaData is data about what's stored in a cloud: how many samples, whether they carry
// normals, and their axis aligned bounding box.
type MetaData struct {
	HasNormals bool
	Count      int

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns an empty MetaData whose bounds will be set by the first Merge.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge grows the bounding box to contain v.
func (meta *MetaData) Merge(v r3.Vector, hasNormal bool) {
	meta.Count++
	if hasNormal {
		meta.HasNormals = true
	}

	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}
}

// Min returns the low corner of the bounding box.
func (meta MetaData) Min() r3.Vector {
	return r3.Vector{X: meta.MinX, Y: meta.MinY, Z: meta.MinZ}
}

// Max returns the high corner of the bounding box.
func (meta MetaData) Max() r3.Vector {
	return r3.Vector{X: meta.MaxX, Y: meta.MaxY, Z: meta.MaxZ}
}

// MaxSideLength returns the largest extent of the bounding box along any axis, or zero
// when nothing has been merged.
func (meta MetaData) MaxSideLength() float64 {
	if meta.Count == 0 {
		return 0
	}
	return math.Max(meta.MaxX-meta.MinX, math.Max(meta.MaxY-meta.MinY, meta.MaxZ-meta.MinZ))
}
