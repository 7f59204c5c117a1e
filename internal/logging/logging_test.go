package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStartupLoggerJSON(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	}()

	var buf bytes.Buffer
	InitWith("info", "json", &buf)

	NewStartupLogger("oceaneye-server").
		Directory("uploads", "/data/uploads").
		DynamoTable("seen", "oceaneye-seen").
		SSMParam("geminiKey", "/oceaneye/gemini").
		Service("dashboard", "http://localhost:3000").
		Feature("gemini", true).
		Config("port", "5001").
		Log()

	var evt map[string]any
	if err := json.Unmarshal(buf.Bytes(), &evt); err != nil {
		t.Fatalf("startup event is not JSON: %v (%s)", err, buf.String())
	}
	if evt["message"] != "Startup complete" {
		t.Errorf("message = %v", evt["message"])
	}
	process, _ := evt["process"].(map[string]any)
	if process["name"] != "oceaneye-server" {
		t.Errorf("process.name = %v", process["name"])
	}
	resources, _ := evt["resources"].(map[string]any)
	for _, key := range []string{"directories", "dynamoTables", "ssmParams", "services"} {
		if _, ok := resources[key]; !ok {
			t.Errorf("resources missing %q", key)
		}
	}
	if _, ok := resources["s3Buckets"]; ok {
		t.Error("empty s3Buckets should be omitted")
	}
	features, _ := evt["features"].(map[string]any)
	if features["gemini"] != true {
		t.Errorf("features = %v", features)
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("OCEANEYE_TEST_VALUE", "")
	if got := EnvOrDefault("OCEANEYE_TEST_VALUE", "fallback"); got != "fallback" {
		t.Errorf("EnvOrDefault() = %q", got)
	}
	t.Setenv("OCEANEYE_TEST_VALUE", "set")
	if got := EnvOrDefault("OCEANEYE_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("EnvOrDefault() = %q", got)
	}
}
