package dashboard

import (
	"github.com/Tirth2116/OceanEye/internal/classify"
)

// Fixed report fields the dashboard expects but the pipeline does not measure.
const (
	DefaultConfidence = 95
	DefaultLocation   = "Captured Frame"
	DefaultSize       = "Medium"
)

// Report is the JSON body of POST /api/detections.
type Report struct {
	TrashType            string `json:"trashType"`
	ThreatLevel          string `json:"threatLevel"`
	DecompositionYears   int    `json:"decompositionYears"`
	EnvironmentalImpact  string `json:"environmentalImpact"`
	DisposalInstructions string `json:"disposalInstructions"`
	ProbableSource       string `json:"probableSource"`
	Image                string `json:"image"`
	Confidence           int    `json:"confidence"`
	Location             string `json:"location"`
	Size                 string `json:"size"`
}

// NewReport builds a report for one analysed object. An empty location
// becomes DefaultLocation.
func NewReport(a classify.Analysis, imageURL, location string) Report {
	if location == "" {
		location = DefaultLocation
	}
	source := a.ProbableSource
	if source == "" {
		source = classify.DefaultSource
	}
	return Report{
		TrashType:            a.Label,
		ThreatLevel:          a.ThreatLevel,
		DecompositionYears:   a.DecompositionYears,
		EnvironmentalImpact:  a.EnvironmentalImpact,
		DisposalInstructions: a.DisposalInstructions,
		ProbableSource:       source,
		Image:                imageURL,
		Confidence:           DefaultConfidence,
		Location:             location,
		Size:                 DefaultSize,
	}
}
