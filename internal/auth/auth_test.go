package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"google.golang.org/genai"
)

type fakeSSM struct {
	value *string
	err   error
	calls int
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if in.WithDecryption == nil || !*in.WithDecryption {
		return nil, errors.New("expected decryption")
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: in.Name, Value: f.value}}, nil
}

func strPtr(s string) *string { return &s }

func TestGetAPIKeyPriority(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key.txt")
	if err := os.WriteFile(keyFile, []byte("  file-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		env  string
		src  KeySources
		want string
	}{
		{"explicit wins", "env-key", KeySources{Key: "flag-key", KeyFile: keyFile}, "flag-key"},
		{"file before env", "env-key", KeySources{KeyFile: keyFile}, "file-key"},
		{"env before ssm", "env-key", KeySources{SSMParam: "/p", SSM: &fakeSSM{value: strPtr("ssm-key")}}, "env-key"},
		{"ssm last", "", KeySources{SSMParam: "/p", SSM: &fakeSSM{value: strPtr("ssm-key")}}, "ssm-key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", tt.env)
			got, err := GetAPIKey(context.Background(), tt.src)
			if err != nil {
				t.Fatalf("GetAPIKey() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetAPIKeyNoSource(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := GetAPIKey(context.Background(), KeySources{})
	if !errors.Is(err, ErrNoKey) {
		t.Fatalf("GetAPIKey() error = %v, want ErrNoKey", err)
	}
	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr.Type != ErrTypeNoKey {
		t.Errorf("error should be a ValidationError of type no_key, got %v", err)
	}
}

func TestGetAPIKeyFileErrors(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := GetAPIKey(context.Background(), KeySources{KeyFile: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("missing key file should be an error")
	}

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := GetAPIKey(context.Background(), KeySources{KeyFile: empty}); !errors.Is(err, ErrNoKey) {
		t.Errorf("empty key file should fall through to ErrNoKey, got %v", err)
	}
}

func TestGetAPIKeySSMFailure(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	boom := errors.New("access denied")
	fake := &fakeSSM{err: boom}

	_, err := GetAPIKey(context.Background(), KeySources{SSMParam: "/oceaneye/gemini", SSM: fake})
	if !errors.Is(err, boom) {
		t.Errorf("GetAPIKey() error = %v, want wrapped SSM error", err)
	}
	if fake.calls != 1 {
		t.Errorf("SSM calls = %d, want 1", fake.calls)
	}
}

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f fakeModels) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return f.resp, f.err
}

func TestValidateAPIKey(t *testing.T) {
	ok := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}

	tests := []struct {
		name     string
		models   fakeModels
		wantType ValidationErrorType
		wantOK   bool
	}{
		{"valid", fakeModels{resp: ok}, 0, true},
		{"empty response", fakeModels{resp: &genai.GenerateContentResponse{}}, ErrTypeUnknown, false},
		{"unauthorized", fakeModels{err: genai.APIError{Code: 403, Message: "denied"}}, ErrTypeInvalidKey, false},
		{"rate limited", fakeModels{err: &genai.APIError{Code: 429}}, ErrTypeQuotaExceeded, false},
		{"dial failure", fakeModels{err: errors.New("dial tcp: no such host")}, ErrTypeNetworkError, false},
		{"quota text", fakeModels{err: errors.New("Resource exhausted")}, ErrTypeQuotaExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(context.Background(), tt.models, "m")
			if tt.wantOK {
				if err != nil {
					t.Fatalf("ValidateAPIKey() error = %v", err)
				}
				return
			}
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("ValidateAPIKey() error = %v, want *ValidationError", err)
			}
			if valErr.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", valErr.Type, tt.wantType)
			}
		})
	}
}
