// Package segment turns an image into binary object masks.
//
// Three implementations exist: an adapter for an external inference service,
// a luminance-threshold stub that needs no model, and Unavailable, which always
// fails so the pipeline falls back to whole-frame classification. Resolve picks
// one at startup.
package segment

import (
	"context"
	"errors"
	"image"

	"github.com/rs/zerolog/log"
)

// ErrUnavailable means no segmentation backend is configured.
var ErrUnavailable = errors.New("segmentation unavailable")

// Segmenter finds object masks in an image. Each returned mask has the image's
// dimensions. Zero masks with a nil error means nothing was found.
type Segmenter interface {
	Segment(ctx context.Context, img image.Image) ([]*Mask, error)
	Name() string
}

// Unavailable is the null segmenter.
type Unavailable struct{}

func (Unavailable) Segment(context.Context, image.Image) ([]*Mask, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Name() string { return "none" }

// lumaThreshold is the 8-bit luminance above which a pixel counts as foreground.
const lumaThreshold = 35

// LumaSegmenter treats every pixel brighter than a fixed luminance as part of a
// single object. It stands in when no model is available.
type LumaSegmenter struct{}

func (LumaSegmenter) Name() string { return "luma" }

// Segment returns one mask of bright pixels, or none when the image is
// uniformly bright or uniformly dark.
func (LumaSegmenter) Segment(_ context.Context, img image.Image) ([]*Mask, error) {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	on := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			luma := 0.2126*float64(r>>8) + 0.7152*float64(g>>8) + 0.0722*float64(bl>>8)
			if luma > lumaThreshold {
				m.on[(y-b.Min.Y)*m.Width+(x-b.Min.X)] = true
				on++
			}
		}
	}
	if on == 0 || on == len(m.on) {
		return nil, nil
	}
	return []*Mask{m}, nil
}

// Options selects a segmenter.
type Options struct {
	// Mode is "auto" (default), "http", "luma" or "none".
	Mode string
	// InferenceURL is the base URL of the segmentation service.
	InferenceURL string
	// ModelPath is forwarded to the service, which reports a missing artifact
	// as a segmentation failure.
	ModelPath string
}

// Resolve picks the segmenter once at startup.
func Resolve(ctx context.Context, opts Options) Segmenter {
	switch opts.Mode {
	case "none":
		return Unavailable{}
	case "luma":
		return LumaSegmenter{}
	}

	if opts.InferenceURL == "" {
		if opts.Mode == "http" {
			log.Warn().Msg("Segmentation mode http requires an inference URL; segmentation disabled")
			return Unavailable{}
		}
		log.Warn().Msg("No inference service configured; using luminance stub segmentation")
		return LumaSegmenter{}
	}

	seg := NewHTTPSegmenter(opts.InferenceURL, opts.ModelPath, nil)
	if err := seg.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("url", opts.InferenceURL).Msg("Inference service unreachable; using luminance stub segmentation")
		return LumaSegmenter{}
	}
	return seg
}
