package cli

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/Tirth2116/OceanEye/internal/auth"
	"github.com/Tirth2116/OceanEye/internal/classify"
	"github.com/Tirth2116/OceanEye/internal/metrics"
)

// ClassifierOptions controls how a binary obtains its classifier.
type ClassifierOptions struct {
	Keys  auth.KeySources
	Model string
	// Validate makes a test call before returning and exits on failure.
	Validate bool
	// Required exits when no key is found instead of degrading to the
	// unconfigured classifier.
	Required bool
	Metrics  *metrics.Metrics
}

// InitClassifier resolves the API key and returns a ready classifier. Without a
// key it returns classify.Unconfigured unless opts.Required is set. Other
// failures exit fatally.
func InitClassifier(ctx context.Context, opts ClassifierOptions) classify.Classifier {
	model := opts.Model
	if model == "" {
		model = classify.GetModelName()
	}

	apiKey, err := auth.GetAPIKey(ctx, opts.Keys)
	if err != nil {
		if opts.Required || !errors.Is(err, auth.ErrNoKey) {
			HandleValidationError(err)
		}
		log.Warn().Msg("No Gemini API key; detections will carry default analysis")
		return classify.Unconfigured{}
	}

	if !opts.Validate {
		cls, err := classify.Resolve(ctx, apiKey, model, opts.Metrics)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Gemini client")
		}
		return cls
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini client")
	}

	if err := auth.ValidateAPIKey(ctx, client.Models, model); err != nil {
		HandleValidationError(err)
	}
	log.Info().Str("model", model).Msg("API key validation complete - ready for operations")
	return classify.NewGeminiClassifier(client, model, opts.Metrics)
}
