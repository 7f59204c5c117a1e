package dedup

import (
	"math"

	flatbush "github.com/bmharper/flatbush-go"

	"github.com/Tirth2116/OceanEye/internal/segment"
)

// rebuildAfter is how many points may be appended past the packed tree before
// it is rebuilt. Appended points are scanned linearly until then.
const rebuildAfter = 64

// Index answers "is anything within threshold of c" over a growing point set.
// Points are packed into a static flatbush tree; the tree only narrows the
// candidates and every hit is confirmed with the exact distance.
type Index struct {
	points  []segment.Point
	tree    *flatbush.Flatbush[int32]
	indexed int
	scratch []int
}

// NewIndex builds an index over points. The slice is copied.
func NewIndex(points []segment.Point) *Index {
	ix := &Index{points: append([]segment.Point(nil), points...)}
	ix.rebuild()
	return ix
}

func (ix *Index) rebuild() {
	ix.indexed = len(ix.points)
	if ix.indexed == 0 {
		ix.tree = nil
		return
	}
	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(ix.points))
	for _, p := range ix.points {
		x0, y0 := int32(math.Floor(p.X)), int32(math.Floor(p.Y))
		x1, y1 := int32(math.Ceil(p.X)), int32(math.Ceil(p.Y))
		fb.Add(x0, y0, x1, y1)
	}
	fb.Finish()
	ix.tree = fb
}

// Near reports whether some indexed point lies within threshold of c.
func (ix *Index) Near(c segment.Point, threshold float64) bool {
	if ix.tree != nil {
		// One extra pixel keeps boundary hits inside the search box.
		minX := int32(math.Floor(c.X-threshold)) - 1
		minY := int32(math.Floor(c.Y-threshold)) - 1
		maxX := int32(math.Ceil(c.X+threshold)) + 1
		maxY := int32(math.Ceil(c.Y+threshold)) + 1
		ix.scratch = ix.tree.SearchFast(minX, minY, maxX, maxY, ix.scratch)
		for _, i := range ix.scratch {
			if distance(c, ix.points[i]) <= threshold {
				return true
			}
		}
	}
	return !IsNew(c, ix.points[ix.indexed:], threshold)
}

// Add appends c to the index.
func (ix *Index) Add(c segment.Point) {
	ix.points = append(ix.points, c)
	if len(ix.points)-ix.indexed >= rebuildAfter {
		ix.rebuild()
	}
}

// Points returns the indexed points in insertion order.
func (ix *Index) Points() []segment.Point {
	return append([]segment.Point(nil), ix.points...)
}

// Len returns the number of points.
func (ix *Index) Len() int {
	return len(ix.points)
}
