package filehandler

import (
	"image"

	"golang.org/x/image/draw"
)

// Downscale shrinks img so neither side exceeds maxDimension, keeping the
// aspect ratio. Images already within bounds are returned unchanged.
func Downscale(img image.Image, maxDimension int) image.Image {
	bounds := img.Bounds()
	w, h := scaledDimensions(bounds.Dx(), bounds.Dy(), maxDimension)
	if w == bounds.Dx() && h == bounds.Dy() {
		return img
	}

	resized := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}

func scaledDimensions(width, height, maxDimension int) (int, int) {
	if maxDimension <= 0 || (width <= maxDimension && height <= maxDimension) {
		return width, height
	}

	if width > height {
		newHeight := max(1, int(float64(height)*float64(maxDimension)/float64(width)))
		return maxDimension, newHeight
	}
	newWidth := max(1, int(float64(width)*float64(maxDimension)/float64(height)))
	return newWidth, maxDimension
}
