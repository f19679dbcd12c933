package sampling

import (
	"strings"

	"github.com/pkg/errors"
)

// Mode is a selection algorithm.
type Mode string

// The selection algorithms.
const (
	ModeGreedy       Mode = "greedy"
	ModeDartThrowing Mode = "dart"
)

// DefaultMode is the algorithm used when none is requested.
const DefaultMode = ModeDartThrowing

// ParseMode returns the Mode named by s. An empty string is the default mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultMode, nil
	case ModeGreedy:
		return ModeGreedy, nil
	case ModeDartThrowing, "dart-throwing", "dartthrowing":
		return ModeDartThrowing, nil
	default:
		return "", errors.Errorf("unknown selection mode %q, expected %q or %q", s, ModeGreedy, ModeDartThrowing)
	}
}
