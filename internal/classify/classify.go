// Package classify turns a cropped object image into a structured debris
// analysis using a hosted vision model.
package classify

import (
	"context"
	"errors"
	"image"
	"strings"
)

// ErrUnavailable is returned by classifiers that have no backing service.
var ErrUnavailable = errors.New("classifier unavailable")

// Threat levels accepted from the model. Anything else is normalised to
// ThreatMedium.
const (
	ThreatLow      = "Low"
	ThreatMedium   = "Medium"
	ThreatHigh     = "High"
	ThreatCritical = "Critical"
)

// Placeholder values used when the model gives no usable answer.
const (
	DefaultDecompositionYears = 100
	DefaultImpact             = "No structured analysis available."
	DefaultDisposal           = "Refer to local recycling guidance."
	DefaultSource             = "Source unknown."
	UnconfiguredImpact        = "AI not configured; returning default analysis."
	missingImpact             = "Environmental impact data unavailable."
	maxLabelRunes             = 64
)

// Analysis is the structured answer for one object.
type Analysis struct {
	Label                string `json:"label"`
	ThreatLevel          string `json:"threat_level"`
	DecompositionYears   int    `json:"decomposition_years"`
	EnvironmentalImpact  string `json:"environmental_impact"`
	DisposalInstructions string `json:"disposal_instructions"`
	ProbableSource       string `json:"probable_source"`
}

// Default returns the conservative analysis substituted when classification
// fails: medium threat, 100 years, placeholder text.
func Default(label string) Analysis {
	if strings.TrimSpace(label) == "" {
		label = "Unknown"
	}
	return Analysis{
		Label:                label,
		ThreatLevel:          ThreatMedium,
		DecompositionYears:   DefaultDecompositionYears,
		EnvironmentalImpact:  DefaultImpact,
		DisposalInstructions: DefaultDisposal,
		ProbableSource:       DefaultSource,
	}
}

// Fallback is Default(label), with the impact text noting a missing
// classifier when err is ErrUnavailable.
func Fallback(label string, err error) Analysis {
	a := Default(label)
	if errors.Is(err, ErrUnavailable) {
		a.EnvironmentalImpact = UnconfiguredImpact
	}
	return a
}

// Classifier labels one image.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (Analysis, error)
	Name() string
}

// Unconfigured is the classifier used when no API key is available.
type Unconfigured struct{}

func (Unconfigured) Name() string { return "none" }

func (Unconfigured) Classify(context.Context, image.Image) (Analysis, error) {
	return Analysis{}, ErrUnavailable
}

// normalize fills missing fields and coerces the threat level onto the
// accepted scale.
func normalize(a Analysis) Analysis {
	a.Label = truncateRunes(strings.TrimSpace(a.Label), maxLabelRunes)
	if a.Label == "" {
		a.Label = "Unknown"
	}
	a.ThreatLevel = normalizeThreat(a.ThreatLevel)
	if a.DecompositionYears <= 0 {
		a.DecompositionYears = DefaultDecompositionYears
	}
	if strings.TrimSpace(a.EnvironmentalImpact) == "" {
		a.EnvironmentalImpact = missingImpact
	}
	if strings.TrimSpace(a.DisposalInstructions) == "" {
		a.DisposalInstructions = DefaultDisposal
	}
	if strings.TrimSpace(a.ProbableSource) == "" {
		a.ProbableSource = DefaultSource
	}
	return a
}

func normalizeThreat(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return ThreatLow
	case "high":
		return ThreatHigh
	case "critical":
		return ThreatCritical
	default:
		return ThreatMedium
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
