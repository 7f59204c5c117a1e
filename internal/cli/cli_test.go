package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Tirth2116/OceanEye/internal/classify"
	"github.com/Tirth2116/OceanEye/internal/pipeline"
	"github.com/Tirth2116/OceanEye/internal/segment"
)

func TestResolveImagePath(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "frame.JPG")
	txt := filepath.Join(dir, "notes.txt")
	for _, p := range []string{img, txt} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ResolveImagePath(img)
	if err != nil || got != img {
		t.Errorf("ResolveImagePath(%q) = %q, %v", img, got, err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.png")},
		{"directory", dir},
		{"unsupported", txt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ResolveImagePath(tt.path); err == nil {
				t.Errorf("ResolveImagePath(%q) succeeded", tt.path)
			}
		})
	}

	if _, err := ResolveImagePath(txt); !errors.Is(err, ErrNotImage) {
		t.Errorf("unsupported extension error = %v, want ErrNotImage", err)
	}
}

func TestFormatCentroid(t *testing.T) {
	if got := FormatCentroid(14.5, 3.2); got != "(15, 3)" {
		t.Errorf("FormatCentroid = %q", got)
	}
}

func TestPrintDetection(t *testing.T) {
	var buf bytes.Buffer
	PrintDetection(&buf, pipeline.Detection{
		Analysis: classify.Default("Fishing Net"),
		Centroid: &segment.Point{X: 10, Y: 20},
		CropPath: "crops/crop_0_10_20.png",
	})
	out := buf.String()
	for _, want := range []string{"NEW object at (10, 20): Fishing Net", "100 years", "crop_0_10_20.png"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	PrintDetection(&buf, pipeline.Detection{Analysis: classify.Default("Unknown"), WholeFrame: true})
	if !strings.HasPrefix(buf.String(), "NEW object at whole frame: Unknown") {
		t.Errorf("whole-frame output = %q", buf.String())
	}
}
