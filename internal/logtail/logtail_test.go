package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.log")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		n       int
		want    []string
	}{
		{"fewer lines than n", "a\nb\n", 5, []string{"a", "b"}},
		{"exactly n", "a\nb\nc\n", 3, []string{"a", "b", "c"}},
		{"more lines than n", "a\nb\nc\nd\n", 2, []string{"c", "d"}},
		{"no trailing newline", "a\nb\nc", 2, []string{"b", "c"}},
		{"crlf endings", "a\r\nb\r\n", 2, []string{"a", "b"}},
		{"empty file", "", 3, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lines(writeLog(t, tt.content), tt.n)
			if err != nil {
				t.Fatalf("Lines() error = %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Lines() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLinesSpansChunks(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&b, "line %04d %s\n", i, strings.Repeat("x", 20))
	}
	got, err := Lines(writeLog(t, b.String()), 50)
	if err != nil {
		t.Fatalf("Lines() error = %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("len(Lines()) = %d, want 50", len(got))
	}
	if !strings.HasPrefix(got[0], "line 4950 ") {
		t.Errorf("first line = %q, want line 4950", got[0])
	}
	if !strings.HasPrefix(got[49], "line 4999 ") {
		t.Errorf("last line = %q, want line 4999", got[49])
	}
}

func TestLinesMissingFile(t *testing.T) {
	got, err := Lines(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil {
		t.Fatalf("Lines() error = %v, want nil", err)
	}
	if got != nil {
		t.Errorf("Lines() = %q, want nil", got)
	}
}
