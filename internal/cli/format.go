package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/Tirth2116/OceanEye/internal/pipeline"
)

// FormatCentroid renders a centroid as integer pixel coordinates.
func FormatCentroid(x, y float64) string {
	return fmt.Sprintf("(%d, %d)", int(math.Round(x)), int(math.Round(y)))
}

// PrintDetection writes a human-readable summary of one newly seen object.
func PrintDetection(w io.Writer, d pipeline.Detection) {
	where := "whole frame"
	if d.Centroid != nil {
		where = FormatCentroid(d.Centroid.X, d.Centroid.Y)
	}
	fmt.Fprintf(w, "NEW object at %s: %s\n", where, d.Label)
	fmt.Fprintf(w, "  Threat level:   %s\n", d.ThreatLevel)
	fmt.Fprintf(w, "  Decomposition:  %d years\n", d.DecompositionYears)
	fmt.Fprintf(w, "  Impact:         %s\n", d.EnvironmentalImpact)
	fmt.Fprintf(w, "  Disposal:       %s\n", d.DisposalInstructions)
	fmt.Fprintf(w, "  Probable source: %s\n", d.ProbableSource)
	if d.CropPath != "" {
		fmt.Fprintf(w, "  Crop:           %s\n", d.CropPath)
	}
}
