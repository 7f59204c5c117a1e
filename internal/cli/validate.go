package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/auth"
	"github.com/Tirth2116/OceanEye/internal/filehandler"
)

// ErrNotImage is returned by ResolveImagePath for files with an unsupported
// extension.
var ErrNotImage = errors.New("not a supported image")

// ResolveImagePath checks that path is a regular file with a supported image
// extension and returns its absolute path.
func ResolveImagePath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", &os.PathError{Op: "open", Path: path, Err: errors.New("is a directory")}
	}
	if !filehandler.IsImage(filepath.Ext(path)) {
		return "", &os.PathError{Op: "open", Path: path, Err: ErrNotImage}
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

// HandleValidationError processes auth.ValidationError and exits with appropriate messaging.
func HandleValidationError(err error) {
	var validationErr *auth.ValidationError
	if errors.As(err, &validationErr) {
		switch validationErr.Type {
		case auth.ErrTypeNoKey:
			log.Fatal().Msg("No API key configured. Set GEMINI_API_KEY, pass --api-key or --api-key-file, or set SSM_API_KEY_PARAM")
		case auth.ErrTypeInvalidKey:
			log.Fatal().Err(err).Msg("Invalid API key. Please check your API key and try again")
		case auth.ErrTypeNetworkError:
			log.Fatal().Err(err).Msg("Network error. Please check your internet connection")
		case auth.ErrTypeQuotaExceeded:
			log.Fatal().Err(err).Msg("API quota exceeded. Please try again later or check your usage limits")
		default:
			log.Fatal().Err(err).Msg("API key validation failed")
		}
	} else {
		log.Fatal().Err(err).Msg("failed to retrieve API key")
	}
	os.Exit(1)
}
