// Package dedup decides whether a segmented object has been reported before.
//
// An object is represented by the centroid of its mask. It is the same object
// as a previously seen one when the centroids are within a distance threshold
// (inclusive). Seen centroids accumulate for the lifetime of a store and are
// never evicted. A store supports one session at a time; concurrent sessions
// against the same store path or table key may lose updates.
package dedup

import (
	"math"

	"github.com/Tirth2116/OceanEye/internal/segment"
)

// DefaultThreshold is the centroid distance, in pixels, at or below which two
// detections are the same object.
const DefaultThreshold = 40.0

// IsNew reports whether c is farther than threshold from every seen point.
func IsNew(c segment.Point, seen []segment.Point, threshold float64) bool {
	for _, s := range seen {
		if distance(c, s) <= threshold {
			return false
		}
	}
	return true
}

// Accept records c as seen.
func Accept(c segment.Point, seen []segment.Point) []segment.Point {
	return append(seen, c)
}

func distance(a, b segment.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
