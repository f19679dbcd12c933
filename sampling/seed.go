package sampling

import (
	//nolint:gosec
	"math/rand"

	"go.viam.com/poissondisk/octree"
)

// DefaultSeed is the seed used when none is given.
const DefaultSeed int64 = 1

// splitmix64 is the finalizer of the SplitMix64 generator. It spreads nearby inputs over
// the whole 64 bit range.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// cellSeed derives the seed of a cell from the run seed and the cell's address, so the
// draws made in a cell do not depend on which goroutine processes it or when.
func cellSeed(seed int64, loc [3]uint32, depth uint) int64 {
	h := splitmix64(uint64(seed))
	for _, code := range loc {
		h = splitmix64(h ^ uint64(code))
	}
	h = splitmix64(h ^ uint64(depth))
	return int64(h)
}

func newCellRand[T octree.Point](seed int64, node *octree.Node[T]) *rand.Rand {
	//nolint:gosec
	return rand.New(rand.NewSource(cellSeed(seed, node.Loc, node.Depth)))
}
