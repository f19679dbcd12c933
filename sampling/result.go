package sampling

import (
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/multierr"

	"go.viam.com/poissondisk/octree"
	"go.viam.com/poissondisk/pointcloud"
)

// Result is the outcome of a selection run.
type Result struct {
	// Selected holds the selected samples in the order they were selected.
	Selected []*pointcloud.Sample
	// Rejected is how many samples were discarded for having too few neighbors.
	Rejected int
	// ProcessingDepth is the depth of the cells the run walked.
	ProcessingDepth uint
	Duration        time.Duration
}

// NumSelected returns the number of selected samples.
func (r Result) NumSelected() int {
	return len(r.Selected)
}

// CoverRate returns the total coverage count of the tree's samples divided by their
// number, or zero for an empty tree.
func CoverRate(tree *octree.Octree[*pointcloud.Sample]) float64 {
	if tree.NumPoints() == 0 {
		return 0
	}
	total := 0
	tree.LeafPoints(tree.Root(), func(s *pointcloud.Sample) bool {
		total += s.Coverage()
		return true
	})
	return float64(total) / float64(tree.NumPoints())
}

// Coverages returns the coverage count of every sample in tree order.
func Coverages(tree *octree.Octree[*pointcloud.Sample]) []float64 {
	coverages := make([]float64, 0, tree.NumPoints())
	tree.LeafPoints(tree.Root(), func(s *pointcloud.Sample) bool {
		coverages = append(coverages, float64(s.Coverage()))
		return true
	})
	return coverages
}

// CoverageStats summarizes how many times the samples of a tree were covered.
type CoverageStats struct {
	Mean   float64
	StdDev float64
	Max    float64
	// Uncovered is the number of samples no selected sample covers.
	Uncovered int
}

// Coverage computes the coverage statistics of the tree's samples.
func Coverage(tree *octree.Octree[*pointcloud.Sample]) (CoverageStats, error) {
	data := stats.Float64Data(Coverages(tree))
	var summary CoverageStats
	var errMean, errStdDev, errMax error
	summary.Mean, errMean = stats.Mean(data)
	summary.StdDev, errStdDev = stats.StandardDeviation(data)
	summary.Max, errMax = stats.Max(data)
	if err := multierr.Combine(errMean, errStdDev, errMax); err != nil {
		return CoverageStats{}, err
	}
	for _, c := range data {
		if c == 0 {
			summary.Uncovered++
		}
	}
	return summary, nil
}
