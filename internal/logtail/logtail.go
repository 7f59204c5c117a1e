// Package logtail reads the last lines of a log file that another process may
// still be appending to.
package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	chunkSize = 8 * 1024
	// maxBytes bounds how far back a tail read will look, however long the lines are.
	maxBytes = 1 << 20
)

// Lines returns up to n trailing lines of the file at path, oldest first.
// A missing file yields no lines and no error. A partial last line written
// concurrently by the worker is returned as-is.
func Lines(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}

	size := info.Size()
	var buf []byte
	offset := size
	for offset > 0 && size-offset < maxBytes {
		step := int64(chunkSize)
		if offset < step {
			step = offset
		}
		offset -= step

		chunk := make([]byte, step)
		if _, err := f.ReadAt(chunk, offset); err != nil && err != io.EOF {
			return nil, fmt.Errorf("read log: %w", err)
		}
		buf = append(chunk, buf...)

		// n lines need n newlines before them, plus one for a trailing newline.
		if bytes.Count(buf, []byte{'\n'}) > n {
			break
		}
	}

	text := strings.TrimRight(string(buf), "\r\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	if offset > 0 && len(lines) > 0 {
		// The first line may be cut in the middle.
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines, nil
}
