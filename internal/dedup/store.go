package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/segment"
)

// Store persists the seen centroids of one tracking session.
type Store interface {
	// Load returns the stored points. A store that does not exist yet, or
	// cannot be parsed, yields no points and no error.
	Load(ctx context.Context) ([]segment.Point, error)
	Save(ctx context.Context, points []segment.Point) error
	// Describe names the store for logs.
	Describe() string
}

// FileStore keeps points as a JSON array of [x, y] pairs.
type FileStore struct {
	Path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Describe() string { return "file:" + s.Path }

// Load reads the store, skipping entries that are not two-number pairs.
func (s *FileStore) Load(_ context.Context) ([]segment.Point, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seen store: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Err(err).Str("path", s.Path).Msg("Seen store is corrupt; starting empty")
		return nil, nil
	}

	points := make([]segment.Point, 0, len(raw))
	skipped := 0
	for _, item := range raw {
		var pair []float64
		if err := json.Unmarshal(item, &pair); err != nil || len(pair) != 2 {
			skipped++
			continue
		}
		points = append(points, segment.Point{X: pair[0], Y: pair[1]})
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Str("path", s.Path).Msg("Skipped malformed seen-store entries")
	}
	return points, nil
}

// Save replaces the store contents. The file is written beside the target and
// renamed into place so a crash never leaves a truncated store.
func (s *FileStore) Save(_ context.Context, points []segment.Point) error {
	pairs := make([][2]float64, len(points))
	for i, p := range points {
		pairs[i] = [2]float64{p.X, p.Y}
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("marshal seen store: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create seen store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".seen-*.json")
	if err != nil {
		return fmt.Errorf("create temp seen store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write seen store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close seen store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace seen store: %w", err)
	}
	return nil
}
