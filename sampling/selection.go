// Package sampling selects a Poisson-disk subset of the samples held by an octree: no two
// selected samples are closer than the radius, and every other sample lies within the
// radius of a selected one.
package sampling

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.viam.com/poissondisk/octree"
	"go.viam.com/poissondisk/pointcloud"
	"go.viam.com/poissondisk/utils"
)

// MinNeighbors is the fewest neighbors, the sample itself included, a sample needs to be
// kept by the greedy selection.
const MinNeighbors = 3

const (
	// dilation scales the radius into the distance a dart throwing cell must keep from the
	// cells processed alongside it.
	dilation = 2.1
	// cellScale is how many dilation distances a dart throwing cell spans at least.
	cellScale = 1.5
)

// Selector runs the selection algorithms over the samples of one octree. A Selector is
// not safe for concurrent use, and the tree must not change while it runs.
type Selector struct {
	logger golog.Logger
	tree   *octree.Octree[*pointcloud.Sample]
	iter   *octree.Iterator[*pointcloud.Sample]
	opts   options
}

// NewSelector returns a Selector separating samples by radius.
func NewSelector(
	tree *octree.Octree[*pointcloud.Sample],
	radius float64,
	logger golog.Logger,
	opts ...Option,
) (*Selector, error) {
	if tree == nil || tree.Root() == octree.NoNode {
		return nil, errors.New("octree must be initialized before selecting samples")
	}
	iter := octree.NewIterator(tree)
	if !iter.SetRadius(radius) {
		return nil, errors.Errorf("invalid radius (%g) for octree of size %g", radius, tree.Size())
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return &Selector{
		logger: logger,
		tree:   tree,
		iter:   iter,
		opts:   o,
	}, nil
}

// Radius returns the minimum separation of selected samples.
func (s *Selector) Radius() float64 {
	return s.iter.Radius()
}

// ActiveDepth returns the depth neighbor queries start from.
func (s *Selector) ActiveDepth() uint {
	return s.iter.ActiveDepth()
}

// ProcessingDepth returns the depth of the cells dart throwing processes in parallel. Those
// cells are at least cellScale dilation distances wide, unless the root is reached first.
func (s *Selector) ProcessingDepth() uint {
	d := dilation * s.iter.Radius()
	level := int(math.Floor(math.Log2(s.tree.Size() / (cellScale * d))))
	root := int(s.tree.Depth())
	return uint(utils.ClampInt(root-level, 0, root))
}

// Run runs the selection algorithm named by mode.
func (s *Selector) Run(ctx context.Context, mode Mode) (Result, error) {
	switch mode {
	case ModeGreedy:
		return s.Greedy(), nil
	case ModeDartThrowing:
		return s.DartThrowing(ctx)
	default:
		return Result{}, errors.Errorf("unknown selection mode %q", mode)
	}
}

// reset puts every sample back to selected and uncovered.
func (s *Selector) reset() {
	s.tree.LeafPoints(s.tree.Root(), func(sample *pointcloud.Sample) bool {
		sample.ResetSelection()
		return true
	})
}

// cover marks every neighbor as covered by a newly selected sample.
func cover(neighbors []*pointcloud.Sample) {
	for _, n := range neighbors {
		n.SetCovered(true)
		n.SetSelected(false)
		n.IncreaseCoverage()
	}
}

// Greedy walks the samples in tree order and selects each one that is not yet covered,
// covering its neighbors. Samples with fewer than MinNeighbors neighbors are discarded
// instead. The result depends only on the tree.
func (s *Selector) Greedy() Result {
	start := s.opts.clock.Now()
	s.reset()

	depth := s.iter.ActiveDepth()
	result := Result{ProcessingDepth: depth}
	for _, id := range s.tree.Nodes(depth, s.tree.Root()) {
		s.tree.LeafPoints(id, func(sample *pointcloud.Sample) bool {
			if sample.IsCovered() {
				return true
			}
			neighbors := s.iter.Neighbors(sample.Position(), id)
			if len(neighbors) < MinNeighbors {
				sample.SetSelected(false)
				result.Rejected++
				return true
			}
			cover(neighbors)
			sample.SetSelected(true)
			result.Selected = append(result.Selected, sample)
			return true
		})
	}

	result.Duration = s.opts.clock.Since(start)
	s.logger.Debugw("greedy selection done",
		"selected", result.NumSelected(),
		"rejected", result.Rejected,
		"depth", depth,
		"duration", result.Duration,
	)
	return result
}

// DartThrowing selects samples by repeatedly drawing a random uncovered sample and covering
// its neighbors. The cells at the processing depth are split in eight buckets by octant;
// the cells of a bucket are far enough apart to be processed concurrently, and buckets are
// processed one after the other. Each cell draws from its own random source seeded from
// the selector's seed and the cell's address, so the result does not depend on
// scheduling. The context is checked between buckets.
func (s *Selector) DartThrowing(ctx context.Context) (Result, error) {
	start := s.opts.clock.Now()
	s.reset()

	depth := s.ProcessingDepth()
	result := Result{ProcessingDepth: depth}
	buckets := s.tree.BucketedNodes(depth, s.tree.Root())
	for octant, cells := range buckets {
		selected := make([][]*pointcloud.Sample, len(cells))
		if err := utils.GroupWorkParallel(
			ctx,
			len(cells),
			s.opts.parallelism,
			nil,
			func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
				return func(memberNum, workNum int) {
					selected[workNum] = s.throwDarts(cells[workNum])
				}, nil
			},
		); err != nil {
			return result, errors.Wrapf(err, "dart throwing stopped before bucket %d", octant)
		}

		before := result.NumSelected()
		for _, cellSelected := range selected {
			result.Selected = append(result.Selected, cellSelected...)
		}
		s.logger.Debugw("bucket done", "octant", octant, "cells", len(cells), "selected", result.NumSelected()-before)
	}

	result.Duration = s.opts.clock.Since(start)
	s.logger.Debugw("dart throwing selection done",
		"selected", result.NumSelected(),
		"depth", depth,
		"duration", result.Duration,
	)
	return result, nil
}

// throwDarts runs the selection within one cell and returns what it selected.
func (s *Selector) throwDarts(cell octree.NodeID) []*pointcloud.Sample {
	rnd := newCellRand(s.opts.seed, s.tree.Node(cell))

	var working []*pointcloud.Sample
	s.tree.LeafPoints(cell, func(sample *pointcloud.Sample) bool {
		working = append(working, sample)
		return true
	})
	slots := make(map[*pointcloud.Sample]int, len(working))
	for i, sample := range working {
		slots[sample] = i
	}
	remove := func(sample *pointcloud.Sample) {
		i, ok := slots[sample]
		if !ok {
			return
		}
		last := working[len(working)-1]
		working[i] = last
		slots[last] = i
		working = working[:len(working)-1]
		delete(slots, sample)
	}

	var selected []*pointcloud.Sample
	for len(working) > 0 {
		candidate := working[rnd.Intn(len(working))]
		remove(candidate)
		if candidate.IsCovered() {
			continue
		}
		neighbors := s.iter.Neighbors(candidate.Position(), octree.NoNode)
		cover(neighbors)
		for _, n := range neighbors {
			remove(n)
		}
		candidate.SetSelected(true)
		selected = append(selected, candidate)
	}
	return selected
}
