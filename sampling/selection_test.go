package sampling

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/poissondisk/octree"
	"go.viam.com/poissondisk/pointcloud"
)

func buildTree(t testing.TB, cloud *pointcloud.Cloud, radius float64, logger golog.Logger) *octree.Octree[*pointcloud.Sample] {
	t.Helper()
	tree, err := octree.NewFitted[*pointcloud.Sample](cloud.MetaData(), radius, logger)
	test.That(t, err, test.ShouldBeNil)
	_, err = tree.AddPoints(cloud.Samples())
	test.That(t, err, test.ShouldBeNil)
	return tree
}

// checkSeparation asserts that no two selected samples are closer than radius.
func checkSeparation(t testing.TB, selected []*pointcloud.Sample, radius float64) {
	t.Helper()
	tooClose := 0
	for i, a := range selected {
		for _, b := range selected[i+1:] {
			if a.Position().Sub(b.Position()).Norm2() < radius*radius {
				tooClose++
			}
		}
	}
	test.That(t, tooClose, test.ShouldEqual, 0)
}

// checkCovered asserts that every sample that is neither selected nor rejected lies within
// radius of a selected sample, and that the selection flags match the result.
func checkCovered(t testing.TB, samples []*pointcloud.Sample, result Result, radius float64) {
	t.Helper()
	selected := map[*pointcloud.Sample]struct{}{}
	for _, s := range result.Selected {
		selected[s] = struct{}{}
	}
	test.That(t, len(selected), test.ShouldEqual, result.NumSelected())

	flagged, uncovered, unflagged := 0, 0, 0
	for _, s := range samples {
		if s.IsSelected() {
			flagged++
			if _, ok := selected[s]; !ok {
				unflagged++
			}
			continue
		}
		if !s.IsCovered() {
			continue
		}
		found := false
		for _, sel := range result.Selected {
			if sel.Position().Sub(s.Position()).Norm2() < radius*radius {
				found = true
				break
			}
		}
		if !found {
			uncovered++
		}
	}
	test.That(t, flagged, test.ShouldEqual, result.NumSelected())
	test.That(t, unflagged, test.ShouldEqual, 0)
	test.That(t, uncovered, test.ShouldEqual, 0)
}

func TestNewSelector(t *testing.T) {
	logger := golog.NewTestLogger(t)

	_, err := NewSelector(nil, 1, logger)
	test.That(t, err, test.ShouldNotBeNil)

	empty, err := octree.New[*pointcloud.Sample](3, logger)
	test.That(t, err, test.ShouldBeNil)
	_, err = NewSelector(empty, 1, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must be initialized")

	tree := buildTree(t, pointcloud.MakeGridCloud(10, 1), 1.5, logger)
	for _, r := range []float64{0, -1, 12, 50} {
		_, err = NewSelector(tree, r, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "invalid radius")
	}

	selector, err := NewSelector(tree, 1.5, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, selector.Radius(), test.ShouldEqual, 1.5)
	test.That(t, selector.ActiveDepth(), test.ShouldEqual, uint(1))
	test.That(t, selector.ProcessingDepth(), test.ShouldEqual, uint(2))

	// a radius close to the root size processes the whole tree at once
	big, err := NewSelector(tree, 11, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, big.ProcessingDepth(), test.ShouldEqual, tree.Depth())
}

func TestGridSelection(t *testing.T) {
	logger := golog.NewTestLogger(t)
	const radius = 1.5

	for _, mode := range []Mode{ModeGreedy, ModeDartThrowing} {
		t.Run(string(mode), func(t *testing.T) {
			cloud := pointcloud.MakeGridCloud(10, 1)
			tree := buildTree(t, cloud, radius, logger)
			selector, err := NewSelector(tree, radius, logger, WithClock(clock.NewMock()))
			test.That(t, err, test.ShouldBeNil)

			result, err := selector.Run(context.Background(), mode)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, result.Rejected, test.ShouldEqual, 0)
			test.That(t, result.Duration, test.ShouldEqual, time.Duration(0))
			test.That(t, result.NumSelected(), test.ShouldBeBetween, 50, 250)

			checkSeparation(t, result.Selected, radius)
			checkCovered(t, cloud.Samples(), result, radius)
			for _, s := range cloud.Samples() {
				test.That(t, s.IsSelected() || s.IsCovered(), test.ShouldBeTrue)
			}

			// every selected sample covers at least itself
			rate := CoverRate(tree)
			test.That(t, rate, test.ShouldBeGreaterThanOrEqualTo, 1)
			summary, err := Coverage(tree)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, summary.Mean, test.ShouldAlmostEqual, rate)
			test.That(t, summary.Uncovered, test.ShouldEqual, 0)
			test.That(t, summary.Max, test.ShouldBeGreaterThanOrEqualTo, 1)
		})
	}
}

func TestIsolatedSample(t *testing.T) {
	logger := golog.NewTestLogger(t)
	const radius = 1.5

	cloud := pointcloud.MakeGridCloud(3, 1)
	isolated := pointcloud.NewSample(r3.Vector{X: 10, Y: 10, Z: 10})
	cloud.Add(isolated, false)
	tree := buildTree(t, cloud, radius, logger)

	selector, err := NewSelector(tree, radius, logger)
	test.That(t, err, test.ShouldBeNil)

	result := selector.Greedy()
	test.That(t, result.Rejected, test.ShouldEqual, 1)
	test.That(t, isolated.IsSelected(), test.ShouldBeFalse)
	test.That(t, isolated.IsCovered(), test.ShouldBeFalse)
	test.That(t, isolated.Coverage(), test.ShouldEqual, 0)
	checkSeparation(t, result.Selected, radius)
	checkCovered(t, cloud.Samples(), result, radius)

	result, err = selector.DartThrowing(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Rejected, test.ShouldEqual, 0)
	test.That(t, isolated.IsSelected(), test.ShouldBeTrue)
	test.That(t, isolated.Coverage(), test.ShouldEqual, 1)
	test.That(t, result.Selected, test.ShouldContain, isolated)
	checkSeparation(t, result.Selected, radius)
	checkCovered(t, cloud.Samples(), result, radius)
}

func TestGreedyIsDeterministic(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cloud := pointcloud.MakeRandomCloud(1500, 6, 2)
	tree := buildTree(t, cloud, 0.5, logger)

	selector, err := NewSelector(tree, 0.5, logger)
	test.That(t, err, test.ShouldBeNil)
	first := selector.Greedy()
	second := selector.Greedy()
	test.That(t, second.Selected, test.ShouldResemble, first.Selected)
	test.That(t, second.Rejected, test.ShouldEqual, first.Rejected)
	checkSeparation(t, first.Selected, 0.5)
	checkCovered(t, cloud.Samples(), second, 0.5)
}

func TestDartThrowingIsReproducible(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cloud := pointcloud.MakeRandomCloud(3000, 8, 4)
	tree := buildTree(t, cloud, 0.4, logger)

	run := func(opts ...Option) Result {
		selector, err := NewSelector(tree, 0.4, logger, opts...)
		test.That(t, err, test.ShouldBeNil)
		result, err := selector.DartThrowing(context.Background())
		test.That(t, err, test.ShouldBeNil)
		checkSeparation(t, result.Selected, 0.4)
		checkCovered(t, cloud.Samples(), result, 0.4)
		return result
	}

	serial := run(WithSeed(42), WithParallelism(1))
	parallel := run(WithSeed(42), WithParallelism(8))
	again := run(WithSeed(42))
	test.That(t, parallel.Selected, test.ShouldResemble, serial.Selected)
	test.That(t, again.Selected, test.ShouldResemble, serial.Selected)

	// nothing is rejected so everything is either selected or covered
	other := run(WithSeed(7))
	for _, s := range cloud.Samples() {
		test.That(t, s.IsSelected() || s.IsCovered(), test.ShouldBeTrue)
	}
	test.That(t, other.NumSelected(), test.ShouldBeGreaterThan, 0)
}

func TestDartThrowingCanceled(t *testing.T) {
	logger := golog.NewTestLogger(t)
	tree := buildTree(t, pointcloud.MakeGridCloud(5, 1), 1, logger)
	selector, err := NewSelector(tree, 1, logger)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = selector.DartThrowing(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)

	_, err = selector.Run(context.Background(), Mode("best"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCoverRateEmpty(t *testing.T) {
	logger := golog.NewTestLogger(t)
	tree, err := octree.New[*pointcloud.Sample](2, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tree.Initialize(r3.Vector{}, 4), test.ShouldBeNil)
	test.That(t, CoverRate(tree), test.ShouldEqual, 0.0)
	_, err = Coverage(tree)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParseMode(t *testing.T) {
	for _, tc := range []struct {
		in   string
		mode Mode
	}{
		{"", DefaultMode},
		{"greedy", ModeGreedy},
		{" Greedy ", ModeGreedy},
		{"dart", ModeDartThrowing},
		{"dart-throwing", ModeDartThrowing},
	} {
		mode, err := ParseMode(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mode, test.ShouldEqual, tc.mode)
	}
	_, err := ParseMode("random")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown selection mode")
}

func TestCellSeed(t *testing.T) {
	a := cellSeed(1, [3]uint32{0, 0, 4}, 2)
	test.That(t, cellSeed(1, [3]uint32{0, 0, 4}, 2), test.ShouldEqual, a)
	test.That(t, cellSeed(2, [3]uint32{0, 0, 4}, 2), test.ShouldNotEqual, a)
	test.That(t, cellSeed(1, [3]uint32{0, 4, 0}, 2), test.ShouldNotEqual, a)
	test.That(t, cellSeed(1, [3]uint32{0, 0, 4}, 3), test.ShouldNotEqual, a)
}

func FuzzSeparation(f *testing.F) {
	f.Add(int64(1), 0.5)
	f.Add(int64(9), 0.25)
	f.Add(int64(-3), 1.7)

	f.Fuzz(func(t *testing.T, seed int64, radius float64) {
		if math.IsNaN(radius) || radius < 0.2 || radius > 2 {
			t.Skip()
		}
		logger := golog.NewTestLogger(t)
		cloud := pointcloud.MakeRandomCloud(400, 5, seed)
		tree := buildTree(t, cloud, radius, logger)

		selector, err := NewSelector(tree, radius, logger, WithSeed(seed))
		test.That(t, err, test.ShouldBeNil)

		greedy := selector.Greedy()
		checkSeparation(t, greedy.Selected, radius)
		checkCovered(t, cloud.Samples(), greedy, radius)

		dart, err := selector.DartThrowing(context.Background())
		test.That(t, err, test.ShouldBeNil)
		checkSeparation(t, dart.Selected, radius)
		checkCovered(t, cloud.Samples(), dart, radius)
	})
}
