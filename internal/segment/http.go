package segment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// HTTPSegmenter posts images to an external segmentation service.
//
// Request: multipart form with an "image" PNG part and an optional "model"
// field. Response: {"masks": [{"width": W, "height": H, "counts": [...]}]}
// where counts is a row-major run-length encoding starting with an off run.
type HTTPSegmenter struct {
	baseURL   string
	modelPath string
	client    *http.Client
}

// NewHTTPSegmenter creates a segmenter for the service at baseURL. A nil
// client gets a default with a generous timeout for CPU inference.
func NewHTTPSegmenter(baseURL, modelPath string, client *http.Client) *HTTPSegmenter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPSegmenter{
		baseURL:   strings.TrimRight(baseURL, "/"),
		modelPath: modelPath,
		client:    client,
	}
}

func (s *HTTPSegmenter) Name() string { return "http" }

type rleMask struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Counts []int `json:"counts"`
}

type segmentResponse struct {
	Masks []rleMask `json:"masks"`
	Error string    `json:"error,omitempty"`
}

// Ping checks that the service answers its health endpoint.
func (s *HTTPSegmenter) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

// Segment sends img to the service and decodes the returned masks, resizing
// any that do not match the image.
func (s *HTTPSegmenter) Segment(ctx context.Context, img image.Image) ([]*Mask, error) {
	body, contentType, err := s.encodeRequest(img)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/segment", body)
	if err != nil {
		return nil, fmt.Errorf("build segment request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("segment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("segment service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode segment response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("segment service: %s", out.Error)
	}

	b := img.Bounds()
	masks := make([]*Mask, 0, len(out.Masks))
	for i, rm := range out.Masks {
		m, err := FromRLE(rm.Width, rm.Height, rm.Counts)
		if err != nil {
			return nil, fmt.Errorf("mask %d: %w", i, err)
		}
		masks = append(masks, m.Resize(b.Dx(), b.Dy()))
	}

	log.Debug().
		Int("masks", len(masks)).
		Dur("elapsed", time.Since(start)).
		Msg("Segmentation service responded")
	return masks, nil
}

func (s *HTTPSegmenter) encodeRequest(img image.Image) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "frame.png")
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if err := png.Encode(part, img); err != nil {
		return nil, "", fmt.Errorf("encode frame: %w", err)
	}
	if s.modelPath != "" {
		if err := w.WriteField("model", s.modelPath); err != nil {
			return nil, "", fmt.Errorf("write model field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
