package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/dedup"
	"github.com/Tirth2116/OceanEye/internal/filehandler"
)

// AnalyzeResult is the outcome of one deduplicated analysis.
type AnalyzeResult struct {
	// Detections holds one entry per object not seen before.
	Detections []Detection `json:"detections"`
	Masks      int         `json:"masks"`
	Duplicates int         `json:"duplicates"`
}

// Analyze runs the standalone analyzer path: segment, then crop and classify
// only the masks whose centroid the tracker has not seen. New centroids are
// persisted once at the end. A frame with no masks yields no detections;
// there is no whole-frame fallback here because a whole frame has no
// centroid to deduplicate.
func (c *Controller) Analyze(ctx context.Context, imagePath string, tracker *dedup.Tracker) (*AnalyzeResult, error) {
	img, _, err := filehandler.DecodeImage(imagePath)
	if err != nil {
		return nil, err
	}
	c.prepareCropsDir()

	result := &AnalyzeResult{}
	masks, err := c.segmenter.Segment(ctx, img)
	if err != nil {
		c.degrade(&StageError{Stage: StageSegment, Index: -1, Err: err}, imagePath)
		return result, nil
	}
	result.Masks = len(masks)

	session, err := tracker.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seen objects: %w", err)
	}

	run := c.runID()
	b := img.Bounds()
	for i, mask := range masks {
		mask = mask.Resize(b.Dx(), b.Dy())
		centroid, isNew, ok := session.Observe(mask)
		if !ok {
			continue
		}
		if !isNew {
			result.Duplicates++
			log.Debug().
				Int("index", i).
				Float64("cx", centroid.X).
				Float64("cy", centroid.Y).
				Msg("Object already seen")
			continue
		}

		det, ok := c.detect(ctx, img, run, i, mask)
		if !ok {
			continue
		}
		result.Detections = append(result.Detections, det)
	}

	if err := session.Commit(ctx); err != nil {
		return result, fmt.Errorf("save seen objects: %w", err)
	}

	log.Info().
		Str("image", imagePath).
		Int("masks", result.Masks).
		Int("new", len(result.Detections)).
		Int("duplicates", result.Duplicates).
		Msg("Frame deduplicated")
	return result, nil
}
