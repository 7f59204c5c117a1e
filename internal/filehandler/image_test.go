package filehandler

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestDecodeImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	writePNG(t, path, 12, 7)

	img, format, err := DecodeImage(path)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 7 {
		t.Errorf("bounds = %v, want 12x7", b)
	}
}

func TestDecodeImageFailures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.jpg")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{garbage, filepath.Join(dir, "missing.png")} {
		_, _, err := DecodeImage(path)
		var decErr *DecodeError
		if !errors.As(err, &decErr) {
			t.Errorf("DecodeImage(%s) error = %v, want *DecodeError", filepath.Base(path), err)
			continue
		}
		if decErr.Path != path {
			t.Errorf("DecodeError.Path = %q, want %q", decErr.Path, path)
		}
	}
}

func TestLocation(t *testing.T) {
	var none *ImageMetadata
	if got := none.Location("Captured Frame"); got != "Captured Frame" {
		t.Errorf("nil Location() = %q", got)
	}

	meta := &ImageMetadata{Latitude: 21.30694, Longitude: -157.85833, HasGPS: true}
	if got := meta.Location("Captured Frame"); got != "21.30694, -157.85833" {
		t.Errorf("Location() = %q", got)
	}
}

func TestExtractImageMetadataWithoutEXIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.png")
	writePNG(t, path, 4, 4)

	meta, err := ExtractImageMetadata(path)
	if err == nil && meta.HasGPS {
		t.Error("plain PNG should not report GPS data")
	}
}

func TestDownscale(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"within bounds", 100, 50, 200, 100, 50},
		{"landscape", 2000, 1000, 1000, 1000, 500},
		{"portrait", 600, 1200, 300, 150, 300},
		{"sliver keeps one pixel", 4000, 1, 1000, 1000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			got := Downscale(img, tt.max).Bounds()
			if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("Downscale() = %dx%d, want %dx%d", got.Dx(), got.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}
