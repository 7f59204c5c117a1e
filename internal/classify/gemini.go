package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/Tirth2116/OceanEye/internal/assets"
	"github.com/Tirth2116/OceanEye/internal/filehandler"
	"github.com/Tirth2116/OceanEye/internal/jsonutil"
	"github.com/Tirth2116/OceanEye/internal/metrics"
)

// maxUploadDimension bounds the crop sent to the model.
const maxUploadDimension = 1024

// contentGenerator is the subset of *genai.Models the classifier calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ParseError reports a model answer that did not contain a usable JSON object.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse classification response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Resolve picks the classifier once at startup: Gemini when a key is
// available, Unconfigured otherwise.
func Resolve(ctx context.Context, apiKey, model string, m *metrics.Metrics) (Classifier, error) {
	if apiKey == "" {
		log.Warn().Msg("No Gemini API key; detections will carry default analysis")
		return Unconfigured{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c := NewGeminiClassifier(client, model, m)
	log.Info().Str("model", c.model).Msg("Gemini classifier ready")
	return c, nil
}

// GeminiClassifier asks a Gemini vision model for a debris analysis.
type GeminiClassifier struct {
	models  contentGenerator
	model   string
	metrics *metrics.Metrics
}

// NewGeminiClassifier wraps an initialised genai client.
func NewGeminiClassifier(client *genai.Client, model string, m *metrics.Metrics) *GeminiClassifier {
	return newGeminiClassifier(client.Models, model, m)
}

func newGeminiClassifier(models contentGenerator, model string, m *metrics.Metrics) *GeminiClassifier {
	if model == "" {
		model = GetModelName()
	}
	return &GeminiClassifier{models: models, model: model, metrics: m}
}

func (g *GeminiClassifier) Name() string { return "gemini:" + g.model }

// Classify sends img as inline PNG with the classification prompt and parses
// the JSON answer. Missing fields are filled with defaults; an answer with no
// JSON object at all is a *ParseError.
func (g *GeminiClassifier) Classify(ctx context.Context, img image.Image) (Analysis, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, filehandler.Downscale(img, maxUploadDimension)); err != nil {
		return Analysis{}, fmt.Errorf("encode crop: %w", err)
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: "image/png", Data: buf.Bytes()}},
			{Text: assets.ClassifyPrompt},
		},
	}}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: assets.ClassifySystemPrompt}}},
		ResponseMIMEType:  "application/json",
	}

	log.Debug().
		Str("model", g.model).
		Int("image_bytes", buf.Len()).
		Msg("Sending crop to Gemini for classification")

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	elapsed := time.Since(start)
	g.metrics.ObserveClassify(elapsed)
	if err != nil {
		return Analysis{}, fmt.Errorf("gemini generate content: %w", err)
	}

	raw := resp.Text()
	analysis, err := ParseAnalysis(raw)
	if err != nil {
		return Analysis{}, err
	}

	log.Debug().
		Str("label", analysis.Label).
		Str("threat_level", analysis.ThreatLevel).
		Dur("elapsed", elapsed).
		Msg("Crop classified")
	return analysis, nil
}

// wireAnalysis accepts decomposition_years as any JSON number; models often
// answer 450.0 or 1e6.
type wireAnalysis struct {
	Label                string      `json:"label"`
	ThreatLevel          string      `json:"threat_level"`
	DecompositionYears   json.Number `json:"decomposition_years"`
	EnvironmentalImpact  string      `json:"environmental_impact"`
	DisposalInstructions string      `json:"disposal_instructions"`
	ProbableSource       string      `json:"probable_source"`
}

// ParseAnalysis decodes a model reply, tolerating markdown fences and
// surrounding prose, and fills missing fields with defaults.
func ParseAnalysis(raw string) (Analysis, error) {
	w, err := jsonutil.ParseObject[wireAnalysis](raw)
	if err != nil {
		return Analysis{}, &ParseError{Raw: truncateRunes(raw, maxLabelRunes), Err: err}
	}

	a := Analysis{
		Label:                w.Label,
		ThreatLevel:          w.ThreatLevel,
		EnvironmentalImpact:  w.EnvironmentalImpact,
		DisposalInstructions: w.DisposalInstructions,
		ProbableSource:       w.ProbableSource,
	}
	if years, err := w.DecompositionYears.Float64(); err == nil {
		a.DecompositionYears = int(math.Round(math.Min(years, math.MaxInt32)))
	}
	return normalize(a), nil
}
