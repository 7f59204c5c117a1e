package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// uploadFields lists accepted multipart field names, in order of preference.
var uploadFields = []string{"file", "video", "image"}

// maxMemory is how much of a multipart body is buffered before spilling to disk.
const maxMemory = 32 << 20

type upload struct {
	file     multipart.File
	filename string
	form     *multipart.Form
}

type uploadError struct {
	status  int
	message string
}

// receiveUpload parses the multipart body and opens the first file field.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request) (*upload, *uploadError) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &uploadError{http.StatusRequestEntityTooLarge, "upload too large"}
		}
		return nil, &uploadError{http.StatusBadRequest, "Missing form field 'file'"}
	}

	for _, field := range uploadFields {
		f, hdr, err := r.FormFile(field)
		if err != nil {
			continue
		}
		if hdr.Size == 0 {
			f.Close()
			r.MultipartForm.RemoveAll()
			return nil, &uploadError{http.StatusBadRequest, "Empty file"}
		}
		return &upload{file: f, filename: hdr.Filename, form: r.MultipartForm}, nil
	}
	r.MultipartForm.RemoveAll()
	return nil, &uploadError{http.StatusBadRequest, "Missing form field 'file'"}
}

// SaveTo writes the upload to path, replacing any existing file.
func (u *upload) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, u.file); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("write upload: %w", err)
	}
	return out.Close()
}

// Close releases the open part and any spilled temp files.
func (u *upload) Close() {
	u.file.Close()
	if u.form != nil {
		u.form.RemoveAll()
	}
}
