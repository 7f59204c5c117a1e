package classify

import (
	"context"
	"errors"
	"image"
	"testing"

	"google.golang.org/genai"
)

type fakeGenerator struct {
	text     string
	err      error
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func TestGeminiClassify(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n" + `{
		"label": "fishing net",
		"threat_level": "critical",
		"decomposition_years": 600.0,
		"environmental_impact": "Entangles turtles and seals.",
		"disposal_instructions": "Return to port reception facility.",
		"probable_source": "fishing industry"
	}` + "\n```"}
	c := newGeminiClassifier(gen, "test-model", nil)

	got, err := c.Classify(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	want := Analysis{
		Label:                "fishing net",
		ThreatLevel:          ThreatCritical,
		DecompositionYears:   600,
		EnvironmentalImpact:  "Entangles turtles and seals.",
		DisposalInstructions: "Return to port reception facility.",
		ProbableSource:       "fishing industry",
	}
	if got != want {
		t.Errorf("Classify() = %+v, want %+v", got, want)
	}

	if gen.model != "test-model" {
		t.Errorf("model = %q, want test-model", gen.model)
	}
	if gen.config == nil || gen.config.ResponseMIMEType != "application/json" {
		t.Error("request should ask for a JSON response")
	}
	parts := gen.contents[0].Parts
	if len(parts) != 2 || parts[0].InlineData == nil || parts[0].InlineData.MIMEType != "image/png" {
		t.Fatalf("first part should be the inline PNG crop, got %+v", parts)
	}
	if parts[1].Text == "" {
		t.Error("second part should carry the prompt")
	}
}

func TestGeminiClassifyFillsMissingFields(t *testing.T) {
	gen := &fakeGenerator{text: `{"label": "  plastic bag ", "threat_level": "severe"}`}
	got, err := newGeminiClassifier(gen, "m", nil).Classify(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.Label != "plastic bag" {
		t.Errorf("Label = %q", got.Label)
	}
	if got.ThreatLevel != ThreatMedium {
		t.Errorf("ThreatLevel = %q, want Medium for an unknown level", got.ThreatLevel)
	}
	if got.DecompositionYears != DefaultDecompositionYears {
		t.Errorf("DecompositionYears = %d", got.DecompositionYears)
	}
	if got.EnvironmentalImpact != missingImpact || got.DisposalInstructions != DefaultDisposal || got.ProbableSource != DefaultSource {
		t.Errorf("placeholders not filled: %+v", got)
	}
}

func TestGeminiClassifyFailures(t *testing.T) {
	transport := errors.New("deadline exceeded")
	tests := []struct {
		name      string
		gen       *fakeGenerator
		wantParse bool
	}{
		{"transport", &fakeGenerator{err: transport}, false},
		{"prose answer", &fakeGenerator{text: "This looks like a plastic bottle."}, true},
		{"truncated JSON", &fakeGenerator{text: `{"label": "can", "threat_level": `}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newGeminiClassifier(tt.gen, "m", nil).Classify(context.Background(), testImage())
			if err == nil {
				t.Fatal("Classify() should fail")
			}
			var parseErr *ParseError
			if errors.As(err, &parseErr) != tt.wantParse {
				t.Errorf("errors.As(ParseError) = %v, want %v (err = %v)", !tt.wantParse, tt.wantParse, err)
			}
			if !tt.wantParse && !errors.Is(err, transport) {
				t.Errorf("transport error not wrapped: %v", err)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	d := Default("Trash Object 2")
	if d.Label != "Trash Object 2" || d.ThreatLevel != ThreatMedium || d.DecompositionYears != 100 {
		t.Errorf("Default() = %+v", d)
	}
	if Default("").Label != "Unknown" {
		t.Error("empty label should become Unknown")
	}
}

func TestUnconfigured(t *testing.T) {
	_, err := Unconfigured{}.Classify(context.Background(), testImage())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Classify() error = %v, want ErrUnavailable", err)
	}
}

func TestGetModelName(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "")
	if got := GetModelName(); got != DefaultModelName {
		t.Errorf("GetModelName() = %q, want %q", got, DefaultModelName)
	}
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	if got := GetModelName(); got != "gemini-2.5-pro" {
		t.Errorf("GetModelName() = %q", got)
	}
}

func TestParseAnalysisClampsHugeYears(t *testing.T) {
	a, err := ParseAnalysis(`{"label": "glass bottle", "decomposition_years": 1e12}`)
	if err != nil {
		t.Fatal(err)
	}
	if a.DecompositionYears <= 1_000_000 {
		t.Errorf("DecompositionYears = %d, want a clamped large value", a.DecompositionYears)
	}
}

func TestFallback(t *testing.T) {
	if got := Fallback("Trash Object 1", ErrUnavailable); got.EnvironmentalImpact != UnconfiguredImpact {
		t.Errorf("Fallback(ErrUnavailable).EnvironmentalImpact = %q", got.EnvironmentalImpact)
	}
	if got := Fallback("Trash Object 1", errors.New("timeout")); got.EnvironmentalImpact != DefaultImpact {
		t.Errorf("Fallback(timeout).EnvironmentalImpact = %q", got.EnvironmentalImpact)
	}
}

func TestResolveWithoutKey(t *testing.T) {
	c, err := Resolve(context.Background(), "", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(Unconfigured); !ok {
		t.Errorf("Resolve() = %T, want Unconfigured", c)
	}
}
