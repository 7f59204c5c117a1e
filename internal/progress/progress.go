// Package progress extracts a completion percentage from the tail of a worker log.
//
// Workers print free-form lines. Two families are recognised: lines that carry
// both a count and a total ("done 45 of 200", "Progress: 45/200 frames (22.5%)"),
// which produce an exact percentage, and count-only lines ("processed 30 units",
// "Progress: 30 frames processed"), which produce an estimate. The result is a
// tagged value so callers can tell the two apart.
package progress

import (
	"encoding/json"
	"regexp"
	"strconv"
)

// Kind tags how a Progress value was obtained.
type Kind int

const (
	// KindUnknown means no recognizable progress line was found.
	KindUnknown Kind = iota
	// KindExact means the worker reported both a count and a total.
	KindExact
	// KindEstimated means the worker reported only a count.
	KindEstimated
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindEstimated:
		return "estimated"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Estimates from count-only lines are kept inside [MinEstimate, MaxEstimate] so
// they never read as "not started" or "done".
const (
	MinEstimate = 1.0
	MaxEstimate = 99.0

	// unitsPerPercent converts a bare unit count into a percentage estimate.
	unitsPerPercent = 10.0
)

// Progress is a percentage tagged with how it was derived.
type Progress struct {
	Kind    Kind    `json:"kind"`
	Percent float64 `json:"percent"`
}

// Exact returns a progress value computed from a known total.
func Exact(pct float64) Progress {
	return Progress{Kind: KindExact, Percent: clamp(pct, 0, 100)}
}

// Estimated returns a heuristic progress value.
func Estimated(pct float64) Progress {
	return Progress{Kind: KindEstimated, Percent: clamp(pct, MinEstimate, MaxEstimate)}
}

// Unknown returns the zero progress value.
func Unknown() Progress {
	return Progress{}
}

// Known reports whether the value carries a percentage.
func (p Progress) Known() bool {
	return p.Kind != KindUnknown
}

// Max returns whichever of p and other reports more progress. Unknown never
// wins against a known value.
func (p Progress) Max(other Progress) Progress {
	switch {
	case !other.Known():
		return p
	case !p.Known():
		return other
	case other.Percent > p.Percent:
		return other
	case other.Percent == p.Percent && other.Kind == KindExact:
		return other
	default:
		return p
	}
}

var (
	doneOfPattern     = regexp.MustCompile(`(?i)\bdone\s+(\d+)\s+of\s+(\d+)`)
	framesOfPattern   = regexp.MustCompile(`(?i)Progress:\s*(\d+)\s*/\s*(\d+)\s+frames`)
	framesDonePattern = regexp.MustCompile(`(?i)Progress:\s*(\d+)\s+frames\s+processed`)
	processedPattern  = regexp.MustCompile(`(?i)\bprocessed\s+(\d+)\s+(?:units|frames)`)
)

// Parse scans lines from newest (last) to oldest and returns the progress
// reported by the first recognizable line.
func Parse(lines []string) Progress {
	for i := len(lines) - 1; i >= 0; i-- {
		if p, ok := parseLine(lines[i]); ok {
			return p
		}
	}
	return Unknown()
}

func parseLine(line string) (Progress, bool) {
	for _, re := range []*regexp.Regexp{doneOfPattern, framesOfPattern} {
		if m := re.FindStringSubmatch(line); m != nil {
			done, errDone := strconv.ParseFloat(m[1], 64)
			total, errTotal := strconv.ParseFloat(m[2], 64)
			if errDone != nil || errTotal != nil || total <= 0 {
				continue
			}
			return Exact(100 * done / total), true
		}
	}
	for _, re := range []*regexp.Regexp{framesDonePattern, processedPattern} {
		if m := re.FindStringSubmatch(line); m != nil {
			n, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			return Estimated(n / unitsPerPercent), true
		}
	}
	return Progress{}, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
