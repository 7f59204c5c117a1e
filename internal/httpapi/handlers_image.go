package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/filehandler"
	"github.com/Tirth2116/OceanEye/internal/pipeline"
)

// imageResponse is returned by POST /upload-image.
type imageResponse struct {
	DetectionsFound int                  `json:"detections_found"`
	DetectionsSent  int                  `json:"detections_sent"`
	Success         bool                 `json:"success"`
	Errors          []string             `json:"errors,omitempty"`
	Detections      []pipeline.Detection `json:"detections"`
}

// POST /upload-image (multipart field "file")
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	up, uerr := s.receiveUpload(w, r)
	if uerr != nil {
		httpError(w, uerr.status, uerr.message)
		return
	}
	defer up.Close()

	ext := strings.ToLower(filepath.Ext(filehandler.SecureFilename(up.filename)))
	if ext == "" {
		ext = ".png"
	}
	if !filehandler.IsImage(ext) {
		httpError(w, http.StatusBadRequest, "Unsupported image type")
		return
	}

	tmpPath := filepath.Join(s.cfg.OutputsDir, fmt.Sprintf("tmp_%d%s", s.now().UnixMilli(), ext))
	if err := up.SaveTo(tmpPath); err != nil {
		log.Error().Err(err).Str("path", tmpPath).Msg("Failed to save uploaded image")
		httpError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}

	resp, err := s.processImage(r.Context(), tmpPath)
	if err != nil {
		var decErr *filehandler.DecodeError
		if errors.As(err, &decErr) {
			httpError(w, http.StatusBadRequest, "Could not decode image")
			return
		}
		log.Error().Err(err).Msg("Detection pipeline failed")
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// processImage detects and forwards objects in the image at path, then
// removes it.
func (s *Server) processImage(ctx context.Context, path string) (imageResponse, error) {
	defer os.Remove(path)

	detections, err := s.detector.Run(ctx, path)
	if err != nil {
		return imageResponse{}, err
	}

	res := s.forwarder.Forward(ctx, path, detections)
	log.Info().
		Int("found", res.Found).
		Int("sent", res.Sent).
		Int("errors", len(res.Errors)).
		Msg("Image processed")

	return imageResponse{
		DetectionsFound: res.Found,
		DetectionsSent:  res.Sent,
		Success:         res.Success,
		Errors:          res.Errors,
		Detections:      detections,
	}, nil
}

// POST /clear-detections
func (s *Server) handleClearDetections(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.dashboard.Clear(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Failed to clear dashboard detections")
		respondJSON(w, http.StatusBadGateway, map[string]any{"success": false, "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
