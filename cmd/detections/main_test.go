package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Tirth2116/OceanEye/internal/classify"
)

func TestLoadAnalysis(t *testing.T) {
	const doc = `{"label": "Plastic bottle", "threat_level": "high", "decomposition_years": 450}`
	path := filepath.Join(t.TempDir(), "analysis.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, arg := range []string{doc, path} {
		a, err := loadAnalysis(arg)
		if err != nil {
			t.Fatalf("loadAnalysis(%q) error = %v", arg, err)
		}
		if a.Label != "Plastic bottle" || a.ThreatLevel != classify.ThreatHigh || a.DecompositionYears != 450 {
			t.Errorf("loadAnalysis(%q) = %+v", arg, a)
		}
	}

	if _, err := loadAnalysis(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := loadAnalysis("{not json"); err == nil {
		t.Error("malformed JSON should fail")
	}
}

func TestBuildReport(t *testing.T) {
	a := classify.Default("Net")

	r, err := buildReport(a, 80, "Zone B-2", "Large")
	if err != nil {
		t.Fatal(err)
	}
	if r.TrashType != "Net" || r.Confidence != 80 || r.Location != "Zone B-2" || r.Size != "Large" {
		t.Errorf("buildReport = %+v", r)
	}

	tests := []struct {
		name       string
		confidence int
		size       string
	}{
		{"confidence too high", 101, "Small"},
		{"negative confidence", -1, "Small"},
		{"unknown size", 50, "Huge"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildReport(a, tt.confidence, "", tt.size); err == nil {
				t.Error("expected error")
			}
		})
	}
}
