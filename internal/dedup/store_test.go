package dedup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tirth2116/OceanEye/internal/segment"
)

func TestFileStoreLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"pairs", `[[1, 2], [3.5, 4.5]]`, 2},
		{"malformed entries skipped", `[[1, 2], [3], "x", [4, 5, 6], [7, 8]]`, 2},
		{"corrupt json", `{not json`, 0},
		{"not a list", `{"a": 1}`, 0},
		{"empty list", `[]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "seen.json")
			os.WriteFile(path, []byte(tt.content), 0644)

			got, err := NewFileStore(path).Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len(Load()) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFileStoreMissing(t *testing.T) {
	got, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json")).Load(context.Background())
	if err != nil || len(got) != 0 {
		t.Errorf("Load() = %v, %v; want empty, nil", got, err)
	}
}

func TestFileStoreSaveWritesPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "seen.json")
	store := NewFileStore(path)
	points := []segment.Point{{X: 1.5, Y: 2}, {X: 30, Y: 40}}

	if err := store.Save(context.Background(), points); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved store: %v", err)
	}
	var pairs [][]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		t.Fatalf("saved store is not a list of pairs: %v\n%s", err, data)
	}
	if len(pairs) != 2 || pairs[0][0] != 1.5 || pairs[1][1] != 40 {
		t.Errorf("saved pairs = %v", pairs)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("store dir has %d entries, want only the store file", len(entries))
	}
}
