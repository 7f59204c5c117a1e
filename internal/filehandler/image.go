package filehandler

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// DecodeError reports a frame that could not be read or decoded at all.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeImage opens and decodes a PNG, JPEG or WebP frame. Every failure is
// returned as a *DecodeError.
func DecodeImage(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", &DecodeError{Path: path, Err: err}
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, "", &DecodeError{Path: path, Err: errors.New("image has no pixels")}
	}

	log.Debug().
		Str("path", path).
		Str("format", format).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Msg("Frame decoded")
	return img, format, nil
}

// ImageMetadata holds the EXIF fields a detection report can use.
type ImageMetadata struct {
	Latitude  float64
	Longitude float64
	HasGPS    bool

	DateTaken time.Time
	HasDate   bool
}

// Location formats the GPS fix as "lat, lon" with five decimals, or returns
// fallback when the frame carries no GPS data.
func (m *ImageMetadata) Location(fallback string) string {
	if m == nil || !m.HasGPS {
		return fallback
	}
	return fmt.Sprintf("%.5f, %.5f", m.Latitude, m.Longitude)
}

// ExtractImageMetadata reads GPS and capture time from a frame's EXIF block.
// Frames without EXIF (most PNG and WebP uploads) return an error, which
// callers treat as "no metadata".
func ExtractImageMetadata(filePath string) (*ImageMetadata, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	exifData, err := imagemeta.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	metadata := &ImageMetadata{}

	gps := exifData.GPS
	if gps.Latitude() != 0 || gps.Longitude() != 0 {
		metadata.Latitude = gps.Latitude()
		metadata.Longitude = gps.Longitude()
		metadata.HasGPS = true
	}

	// DateTimeOriginal > CreateDate > ModifyDate
	switch {
	case !exifData.DateTimeOriginal().IsZero():
		metadata.DateTaken = exifData.DateTimeOriginal()
		metadata.HasDate = true
	case !exifData.CreateDate().IsZero():
		metadata.DateTaken = exifData.CreateDate()
		metadata.HasDate = true
	case !exifData.ModifyDate().IsZero():
		metadata.DateTaken = exifData.ModifyDate()
		metadata.HasDate = true
	}

	log.Debug().
		Str("path", filePath).
		Bool("has_gps", metadata.HasGPS).
		Bool("has_date", metadata.HasDate).
		Msg("Frame metadata extracted")

	return metadata, nil
}
