package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// chdirTemp runs the test from an empty directory so no .env is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"OCEANEYE_HOST", "PORT", "OCEANEYE_DATA_DIR", "OCEANEYE_DEDUP_THRESHOLD",
		"OCEANEYE_LOG_TAIL_LINES", "OCEANEYE_CROP_PADDING", "TRASH_SEEN_STORE",
		"OCEANEYE_INFERENCE_URL", "DASHBOARD_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 5001 || cfg.Host != "0.0.0.0" {
		t.Errorf("listener = %s", cfg.Addr())
	}
	if cfg.DedupThreshold != 40 || cfg.LogTailLines != 50 || cfg.CropPadding != 6 {
		t.Errorf("numeric defaults = %v %d %d", cfg.DedupThreshold, cfg.LogTailLines, cfg.CropPadding)
	}
	if cfg.SeenStorePath != "trash_seen.json" {
		t.Errorf("SeenStorePath = %q", cfg.SeenStorePath)
	}
	if cfg.OutputsDir() != filepath.Join("data", "outputs") {
		t.Errorf("OutputsDir() = %q", cfg.OutputsDir())
	}
}

func TestLoadOverrides(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("OCEANEYE_DEDUP_THRESHOLD", "12.5")
	t.Setenv("TRASH_SEEN_STORE", "/tmp/seen.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8080 || cfg.DedupThreshold != 12.5 || cfg.SeenStorePath != "/tmp/seen.json" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestResolveSeenStore(t *testing.T) {
	tests := []struct {
		name string
		env  string
		flag string
		want string
	}{
		{"default", "", "", "trash_seen.json"},
		{"flag only", "", "/data/flag.json", "/data/flag.json"},
		{"env only", "/data/env.json", "", "/data/env.json"},
		{"env beats flag", "/data/env.json", "/data/flag.json", "/data/env.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			clearEnv(t)
			t.Setenv("TRASH_SEEN_STORE", tt.env)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := cfg.ResolveSeenStore(tt.flag); got != tt.want {
				t.Errorf("ResolveSeenStore(%q) = %q, want %q", tt.flag, got, tt.want)
			}
		})
	}
}

func TestLoadInvalidNumbers(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)
	t.Setenv("PORT", "http")
	t.Setenv("OCEANEYE_DEDUP_THRESHOLD", "-3")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should reject malformed numbers")
	}
	for _, key := range []string{"PORT", "OCEANEYE_DEDUP_THRESHOLD"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t)
	// godotenv never overrides a variable that exists, even if empty.
	os.Unsetenv("OCEANEYE_CROP_PADDING")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("OCEANEYE_CROP_PADDING=9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CropPadding != 9 {
		t.Errorf("CropPadding = %d, want value from .env", cfg.CropPadding)
	}
}

func TestEnsureDirs(t *testing.T) {
	cfg := &Config{DataDir: filepath.Join(t.TempDir(), "data")}
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	for _, dir := range []string{cfg.UploadsDir(), cfg.OutputsDir(), cfg.CropsDir()} {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			t.Errorf("%s not created", dir)
		}
	}
}
