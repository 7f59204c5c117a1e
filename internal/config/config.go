// Package config loads service settings from the environment, after
// applying an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every setting shared by the server and the CLIs.
type Config struct {
	Host string
	Port int

	// DataDir holds uploads/, outputs/ and crops/.
	DataDir       string
	DetectionsDir string

	PythonBin    string
	WorkerScript string
	ModelPath    string

	DashboardURL  string
	InferenceURL  string
	SegmenterMode string

	GeminiAPIKey   string
	GeminiModel    string
	SSMAPIKeyParam string

	SeenStorePath  string
	SeenTable      string
	SeenSession    string
	DedupThreshold float64

	CropBucket string

	LogTailLines int
	CropPadding  int

	seenStoreFromEnv bool
}

func (c *Config) UploadsDir() string { return filepath.Join(c.DataDir, "uploads") }
func (c *Config) OutputsDir() string { return filepath.Join(c.DataDir, "outputs") }
func (c *Config) CropsDir() string   { return filepath.Join(c.DataDir, "crops") }

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads .env (if present) and then the environment. Malformed numeric
// values are errors; unset values take their defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to parse .env file")
	}

	cfg := &Config{
		Host:           getEnv("OCEANEYE_HOST", "0.0.0.0"),
		DataDir:        getEnv("OCEANEYE_DATA_DIR", "./data"),
		DetectionsDir:  getEnv("OCEANEYE_DETECTIONS_DIR", "./frontend/public/detections"),
		PythonBin:      getEnv("PYTHON_BIN", "python3"),
		WorkerScript:   getEnv("OCEANEYE_WORKER_SCRIPT", "yolov8_seg_track.py"),
		ModelPath:      getEnv("OCEANEYE_MODEL_PATH", "best.pt"),
		DashboardURL:   getEnv("DASHBOARD_URL", "http://localhost:3000"),
		InferenceURL:   os.Getenv("OCEANEYE_INFERENCE_URL"),
		SegmenterMode:  getEnv("OCEANEYE_SEGMENTER", "auto"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    os.Getenv("GEMINI_MODEL"),
		SSMAPIKeyParam: os.Getenv("SSM_API_KEY_PARAM"),
		SeenStorePath:  getEnv("TRASH_SEEN_STORE", "trash_seen.json"),
		SeenTable:      os.Getenv("OCEANEYE_SEEN_TABLE"),
		SeenSession:    getEnv("OCEANEYE_SEEN_SESSION", "default"),
		CropBucket:     os.Getenv("OCEANEYE_CROP_BUCKET"),
	}

	cfg.seenStoreFromEnv = os.Getenv("TRASH_SEEN_STORE") != ""

	var errs []error
	cfg.Port = getInt("PORT", 5001, &errs)
	cfg.LogTailLines = getInt("OCEANEYE_LOG_TAIL_LINES", 50, &errs)
	cfg.CropPadding = getInt("OCEANEYE_CROP_PADDING", 6, &errs)
	cfg.DedupThreshold = getFloat("OCEANEYE_DEDUP_THRESHOLD", 40, &errs)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveSeenStore picks the analyzer's seen-store path. TRASH_SEEN_STORE wins
// over flagPath, and trash_seen.json is used when neither is set.
func (c *Config) ResolveSeenStore(flagPath string) string {
	if c.seenStoreFromEnv || flagPath == "" {
		return c.SeenStorePath
	}
	return flagPath
}

// EnsureDirs creates the data directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.UploadsDir(), c.OutputsDir(), c.CropsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int, errs *[]error) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid non-negative integer %q", key, val))
		return defaultVal
	}
	return n
}

func getFloat(key string, defaultVal float64, errs *[]error) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid non-negative number %q", key, val))
		return defaultVal
	}
	return f
}
