package pointcloud

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// Point is a bare position with no attached data. It is addressed by pointer so two
// points at the same location remain distinct entries of an octree.
type Point struct {
	P r3.Vector
}

// NewPoint returns a Point at the given coordinates.
func NewPoint(x, y, z float64) *Point {
	return &Point{P: NewVector(x, y, z)}
}

// Position returns the location of the point.
func (p *Point) Position() r3.Vector {
	return p.P
}

// Sample is an oriented point along with the state used by the Poisson-disk selection.
// A new sample is selected and uncovered; the selection algorithms are the only writers
// of that state.
type Sample struct {
	position r3.Vector
	normal   r3.Vector
	tangent  r3.Vector

	selected bool
	covered  bool
	coverage int
}

// NewSample returns an unoriented sample; its normal is the zero vector.
func NewSample(p r3.Vector) *Sample {
	return NewOrientedSample(p, r3.Vector{})
}

// NewOrientedSample returns a sample with the given position and normal.
func NewOrientedSample(p, n r3.Vector) *Sample {
	return &Sample{position: p, normal: n, selected: true}
}

// Position returns the location of the sample.
func (s *Sample) Position() r3.Vector {
	return s.position
}

// Normal returns the surface normal of the sample.
func (s *Sample) Normal() r3.Vector {
	return s.normal
}

// Tangent returns the tangent of the sample.
func (s *Sample) Tangent() r3.Vector {
	return s.tangent
}

// SetTangent sets the tangent of the sample.
func (s *Sample) SetTangent(t r3.Vector) {
	s.tangent = t
}

// IsSelected reports whether the sample is part of the subsampled set.
func (s *Sample) IsSelected() bool {
	return s.selected
}

// SetSelected marks the sample as kept or discarded.
func (s *Sample) SetSelected(selected bool) {
	s.selected = selected
}

// IsCovered reports whether the sample lies within the radius of a selected sample.
func (s *Sample) IsCovered() bool {
	return s.covered
}

// SetCovered sets the coverage flag.
func (s *Sample) SetCovered(covered bool) {
	s.covered = covered
}

// Coverage returns how many times the sample was covered.
func (s *Sample) Coverage() int {
	return s.coverage
}

// IncreaseCoverage increments the coverage counter.
func (s *Sample) IncreaseCoverage() {
	s.coverage++
}

// ResetSelection puts the sample back in its initial state.
func (s *Sample) ResetSelection() {
	s.selected = true
	s.covered = false
	s.coverage = 0
}

func (s *Sample) String() string {
	return fmt.Sprintf("Sample{P: %v, N: %v, selected: %t, covered: %t, coverage: %d}",
		s.position, s.normal, s.selected, s.covered, s.coverage)
}

// Selected returns the samples that are marked selected, in order.
func Selected(samples []*Sample) []*Sample {
	var selected []*Sample
	for _, s := range samples {
		if s.IsSelected() {
			selected = append(selected, s)
		}
	}
	return selected
}
