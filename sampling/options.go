package sampling

import "github.com/benbjohnson/clock"

// options configures a Selector.
type options struct {
	seed        int64
	parallelism int
	clock       clock.Clock
}

func defaultOptions() options {
	return options{
		seed:  DefaultSeed,
		clock: clock.New(),
	}
}

// Option configures how a Selector runs.
type Option interface {
	apply(*options)
}

// funcOption wraps a function that modifies options into an
// implementation of the Option interface.
type funcOption struct {
	f func(*options)
}

func (fdo *funcOption) apply(do *options) {
	fdo.f(do)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{
		f: f,
	}
}

// WithSeed returns an Option which sets the seed the per cell random sources of dart
// throwing are derived from.
func WithSeed(seed int64) Option {
	return newFuncOption(func(o *options) {
		o.seed = seed
	})
}

// WithParallelism returns an Option which caps how many goroutines process the cells of a
// bucket. Zero or less means utils.ParallelFactor.
func WithParallelism(parallelism int) Option {
	return newFuncOption(func(o *options) {
		o.parallelism = parallelism
	})
}

// WithClock returns an Option which sets the clock used to time selections.
func WithClock(c clock.Clock) Option {
	return newFuncOption(func(o *options) {
		o.clock = c
	})
}
