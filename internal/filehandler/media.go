// Package filehandler validates uploaded media, decodes frames and reads the
// EXIF metadata the dashboard shows next to a detection.
package filehandler

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// SupportedImageExtensions lists the frame formats the detection pipeline decodes.
var SupportedImageExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// SupportedVideoExtensions lists the containers the video worker accepts.
var SupportedVideoExtensions = map[string]string{
	".mp4": "video/mp4",
}

// GetMIMEType returns the MIME type for a given file extension.
func GetMIMEType(ext string) (string, error) {
	ext = strings.ToLower(ext)

	if mimeType, ok := SupportedImageExtensions[ext]; ok {
		return mimeType, nil
	}
	if mimeType, ok := SupportedVideoExtensions[ext]; ok {
		return mimeType, nil
	}
	return "", fmt.Errorf("unsupported file extension: %s", ext)
}

// IsImage returns true if the file extension corresponds to a supported frame.
func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}

// IsVideo returns true if the file extension corresponds to a supported video.
func IsVideo(ext string) bool {
	_, ok := SupportedVideoExtensions[strings.ToLower(ext)]
	return ok
}

// SecureFilename reduces an uploaded file name to a flat ASCII name that is
// safe to join onto a storage directory. Directory components are discarded,
// runs of whitespace become '_', and anything outside [A-Za-z0-9._-] is
// dropped. Leading and trailing dots and underscores are trimmed, so the
// result is never "." or "..". It may be empty.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "/" || name == "." {
		return ""
	}

	var sb strings.Builder
	pendingSpace := false
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = sb.Len() > 0
			continue
		case r > unicode.MaxASCII:
			continue
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
		default:
			continue
		}
		if pendingSpace {
			sb.WriteByte('_')
			pendingSpace = false
		}
		sb.WriteRune(r)
	}
	return strings.Trim(sb.String(), "._")
}
