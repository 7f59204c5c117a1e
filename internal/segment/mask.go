package segment

import (
	"fmt"
	"image"
)

// Point is a position in image pixel space.
type Point struct {
	X, Y float64
}

// Mask is a binary segmentation mask the size of its source image.
type Mask struct {
	Width, Height int
	on            []bool
}

// NewMask returns an all-off mask of the given size.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, on: make([]bool, width*height)}
}

// FullMask returns a mask with every pixel on.
func FullMask(width, height int) *Mask {
	m := NewMask(width, height)
	for i := range m.on {
		m.on[i] = true
	}
	return m
}

// FromRLE decodes row-major run lengths that alternate off and on, starting
// with an off run (which may be zero).
func FromRLE(width, height int, counts []int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid mask size %dx%d", width, height)
	}
	m := NewMask(width, height)
	pos, value := 0, false
	for _, n := range counts {
		if n < 0 || pos+n > len(m.on) {
			return nil, fmt.Errorf("run length overflows %dx%d mask", width, height)
		}
		if value {
			for i := pos; i < pos+n; i++ {
				m.on[i] = true
			}
		}
		pos += n
		value = !value
	}
	return m, nil
}

// Set turns the pixel at (x, y) on or off. Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.on[y*m.Width+x] = v
}

// At reports whether the pixel at (x, y) is on.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.on[y*m.Width+x]
}

// Count returns the number of on pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.on {
		if v {
			n++
		}
	}
	return n
}

// Centroid returns the mean position of all on pixels. An empty mask has no
// centroid.
func (m *Mask) Centroid() (Point, bool) {
	var sumX, sumY float64
	n := 0
	for y := 0; y < m.Height; y++ {
		row := m.on[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if v {
				sumX += float64(x)
				sumY += float64(y)
				n++
			}
		}
	}
	if n == 0 {
		return Point{}, false
	}
	return Point{X: sumX / float64(n), Y: sumY / float64(n)}, true
}

// Bounds returns the tight bounding box of the on pixels as a half-open
// rectangle, so the last on column and row are included.
func (m *Mask) Bounds() (image.Rectangle, bool) {
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.on[y*m.Width+x] {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// CropRect pads the mask's bounding box by pad pixels on every side and clamps
// it to bounds. An empty mask yields no rectangle.
func (m *Mask) CropRect(pad int, bounds image.Rectangle) (image.Rectangle, bool) {
	r, ok := m.Bounds()
	if !ok {
		return image.Rectangle{}, false
	}
	r = image.Rect(r.Min.X-pad, r.Min.Y-pad, r.Max.X+pad, r.Max.Y+pad).Intersect(bounds)
	if r.Empty() {
		return image.Rectangle{}, false
	}
	return r, true
}

// Resize scales the mask to width x height with nearest-neighbour sampling.
// Segmentation models often emit masks at their input resolution rather than
// the source image's.
func (m *Mask) Resize(width, height int) *Mask {
	if width == m.Width && height == m.Height {
		return m
	}
	out := NewMask(width, height)
	if m.Width == 0 || m.Height == 0 {
		return out
	}
	for y := 0; y < height; y++ {
		sy := y * m.Height / height
		for x := 0; x < width; x++ {
			sx := x * m.Width / width
			out.on[y*width+x] = m.on[sy*m.Width+sx]
		}
	}
	return out
}
