// Package auth resolves and validates the Gemini API key.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ssmAPI is the subset of *ssm.Client used to fetch the key.
type ssmAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// KeySources lists where a key may come from. Empty fields are skipped.
type KeySources struct {
	// Key is an explicit key, typically from a --api-key flag.
	Key string
	// KeyFile is a file whose trimmed contents are the key.
	KeyFile string
	// SSMParam names a SecureString parameter holding the key.
	SSMParam string
	SSM      ssmAPI
}

// ErrNoKey is wrapped by GetAPIKey when no source yields a key.
var ErrNoKey = errors.New("API key not found")

// GetAPIKey retrieves the Gemini API key from available sources.
// Priority order:
//  1. KeySources.Key
//  2. KeySources.KeyFile
//  3. GEMINI_API_KEY environment variable
//  4. SSM Parameter Store (KeySources.SSMParam)
//
// A key file that exists but cannot be read is an error rather than a
// silent fall-through.
func GetAPIKey(ctx context.Context, src KeySources) (string, error) {
	if key := strings.TrimSpace(src.Key); key != "" {
		log.Debug().Msg("Using API key from command line")
		return key, nil
	}

	if src.KeyFile != "" {
		data, err := os.ReadFile(src.KeyFile)
		if err != nil {
			return "", fmt.Errorf("read API key file: %w", err)
		}
		if key := strings.TrimSpace(string(data)); key != "" {
			log.Debug().Str("file", src.KeyFile).Msg("Using API key from file")
			return key, nil
		}
		log.Warn().Str("file", src.KeyFile).Msg("API key file is empty")
	}

	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}

	if src.SSMParam != "" && src.SSM != nil {
		key, err := getFromSSM(ctx, src.SSM, src.SSMParam)
		if err != nil {
			return "", err
		}
		if key != "" {
			return key, nil
		}
	}

	return "", &ValidationError{
		Type:    ErrTypeNoKey,
		Message: "set GEMINI_API_KEY, pass --api-key/--api-key-file, or configure SSM_API_KEY_PARAM",
		Err:     ErrNoKey,
	}
}

func getFromSSM(ctx context.Context, client ssmAPI, param string) (string, error) {
	start := time.Now()
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(param),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("read API key from SSM %s: %w", param, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		log.Warn().Str("param", param).Msg("SSM parameter has no value")
		return "", nil
	}
	log.Debug().Str("param", param).Dur("elapsed", time.Since(start)).Msg("Gemini API key loaded from SSM")
	return strings.TrimSpace(*result.Parameter.Value), nil
}
