package dashboard

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/filehandler"
	"github.com/Tirth2116/OceanEye/internal/pipeline"
)

// sender is the part of *Client a Forwarder needs.
type sender interface {
	Send(ctx context.Context, report Report) error
}

// Forwarder publishes each detection's crop and reports it to the dashboard.
type Forwarder struct {
	client    sender
	publisher Publisher
}

// NewForwarder pairs a dashboard client with a crop publisher.
func NewForwarder(client *Client, publisher Publisher) *Forwarder {
	return &Forwarder{client: client, publisher: publisher}
}

// ForwardResult summarises one upload. Success is true when at least one
// detection reached the dashboard.
type ForwardResult struct {
	Found   int      `json:"detections_found"`
	Sent    int      `json:"detections_sent"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

// Forward sends every detection found in imagePath. A detection without its
// own crop is published from the source image. Failures are collected per
// detection and never stop the loop.
func (f *Forwarder) Forward(ctx context.Context, imagePath string, detections []pipeline.Detection) ForwardResult {
	location := DefaultLocation
	if meta, err := filehandler.ExtractImageMetadata(imagePath); err == nil {
		location = meta.Location(DefaultLocation)
	}

	res := ForwardResult{Found: len(detections)}
	for i, det := range detections {
		src := det.CropPath
		if src == "" {
			src = imagePath
		}

		url, err := f.publisher.Publish(ctx, src)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("crop", src).Msg("Failed to publish crop")
			res.Errors = append(res.Errors, fmt.Sprintf("Detection %d: %v", i, err))
			continue
		}

		if err := f.client.Send(ctx, NewReport(det.Analysis, url, location)); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("Failed to send detection")
			res.Errors = append(res.Errors, fmt.Sprintf("Detection %d failed to send: %v", i, err))
			continue
		}
		res.Sent++
	}
	res.Success = res.Sent > 0
	return res
}
