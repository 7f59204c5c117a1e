// Package pipeline turns one frame into detections: segment, crop each mask,
// classify each crop. Collaborator failures degrade the result to a coarser
// granularity instead of failing the request; only an undecodable frame is
// an error.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/classify"
	"github.com/Tirth2116/OceanEye/internal/filehandler"
	"github.com/Tirth2116/OceanEye/internal/metrics"
	"github.com/Tirth2116/OceanEye/internal/segment"
)

// DefaultPadding is the margin added around a mask's bounding box.
const DefaultPadding = 6

// Stage names used in logs, metrics and StageError.
const (
	StageSegment   = "segment"
	StageCrop      = "crop"
	StageClassify  = "classify"
	StageAggregate = "aggregate"
)

// StageError records a degraded stage. It is logged and counted, never
// returned to the caller of Run.
type StageError struct {
	Stage string
	Index int // object index, -1 for whole-frame stages
	Err   error
}

func (e *StageError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s[%d]: %v", e.Stage, e.Index, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Detection is one classified object, or the whole frame when per-object
// analysis was not possible.
type Detection struct {
	classify.Analysis

	Index      int             `json:"index"`
	CropPath   string          `json:"crop_path"`
	Bounds     image.Rectangle `json:"-"`
	Centroid   *segment.Point  `json:"centroid,omitempty"`
	WholeFrame bool            `json:"whole_frame"`
	// Degraded names the stage that failed for this object. Only a classify
	// failure replaces the analysis with a default.
	Degraded string `json:"degraded,omitempty"`
}

// Config controls crop extraction.
type Config struct {
	// CropsDir receives one PNG per cropped object.
	CropsDir string
	Padding  int
}

// Controller sequences the stages. It is safe for concurrent use as long as
// its collaborators are.
type Controller struct {
	segmenter  segment.Segmenter
	classifier classify.Classifier
	cfg        Config
	metrics    *metrics.Metrics

	saveCrop func(img image.Image, path string) error
	now      func() time.Time
	runID    func() string
}

// New creates a Controller. A negative padding is treated as zero.
func New(seg segment.Segmenter, cls classify.Classifier, cfg Config, m *metrics.Metrics) *Controller {
	if cfg.Padding < 0 {
		cfg.Padding = 0
	}
	return &Controller{
		segmenter:  seg,
		classifier: cls,
		cfg:        cfg,
		metrics:    m,
		saveCrop: func(img image.Image, path string) error {
			return imaging.Save(img, path)
		},
		now:   time.Now,
		runID: newRunID,
	}
}

// newRunID tags the crops of one Run or Analyze call so concurrent requests
// sharing a crops directory never overwrite each other.
func newRunID() string {
	return uuid.NewString()[:8]
}

// Run produces at least one Detection for any decodable frame. The only error
// it returns is a *filehandler.DecodeError.
func (c *Controller) Run(ctx context.Context, imagePath string) ([]Detection, error) {
	img, _, err := filehandler.DecodeImage(imagePath)
	if err != nil {
		return nil, err
	}
	c.prepareCropsDir()

	masks, err := c.segmenter.Segment(ctx, img)
	if err != nil {
		c.degrade(&StageError{Stage: StageSegment, Index: -1, Err: err}, imagePath)
		return []Detection{c.wholeFrame(ctx, img, imagePath, StageSegment)}, nil
	}
	if len(masks) == 0 {
		c.degrade(&StageError{Stage: StageSegment, Index: -1, Err: errNoMasks}, imagePath)
		return []Detection{c.wholeFrame(ctx, img, imagePath, StageSegment)}, nil
	}

	run := c.runID()
	detections := make([]Detection, 0, len(masks))
	for i, mask := range masks {
		det, ok := c.detect(ctx, img, run, i, mask)
		if !ok {
			continue
		}
		detections = append(detections, det)
	}

	if len(detections) == 0 {
		c.degrade(&StageError{Stage: StageAggregate, Index: -1, Err: errAllSkipped}, imagePath)
		return []Detection{c.wholeFrame(ctx, img, imagePath, StageAggregate)}, nil
	}

	log.Info().
		Str("image", imagePath).
		Str("segmenter", c.segmenter.Name()).
		Int("masks", len(masks)).
		Int("detections", len(detections)).
		Msg("Frame analysed")
	return detections, nil
}

var (
	errNoMasks    = fmt.Errorf("segmenter returned no masks")
	errAllSkipped = fmt.Errorf("every mask was empty")
)

// detect crops and classifies one mask. ok is false only for an empty mask.
// A crop that cannot be saved is still classified from memory; its
// CropPath stays empty.
func (c *Controller) detect(ctx context.Context, img image.Image, run string, i int, mask *segment.Mask) (Detection, bool) {
	b := img.Bounds()
	mask = mask.Resize(b.Dx(), b.Dy())

	rect, ok := mask.CropRect(c.cfg.Padding, image.Rect(0, 0, b.Dx(), b.Dy()))
	if !ok {
		log.Debug().Int("index", i).Msg("Skipping empty mask")
		return Detection{}, false
	}
	rect = rect.Add(b.Min)

	det := Detection{Index: i, Bounds: rect}
	if centroid, ok := mask.Centroid(); ok {
		det.Centroid = &centroid
	}

	crop := imaging.Crop(img, rect)
	cropPath := c.cropPath(run, i, det.Centroid)
	if err := c.writeCrop(crop, cropPath); err != nil {
		c.degrade(&StageError{Stage: StageCrop, Index: i, Err: err}, cropPath)
		det.Degraded = StageCrop
	} else {
		det.CropPath = cropPath
	}

	analysis, err := c.classifier.Classify(ctx, crop)
	if err != nil {
		c.degrade(&StageError{Stage: StageClassify, Index: i, Err: err}, cropPath)
		det.Analysis = classify.Fallback(defaultLabel(i), err)
		det.Degraded = StageClassify
		return det, true
	}
	det.Analysis = analysis
	return det, true
}

// wholeFrame classifies the entire frame. The source image doubles as the
// crop.
func (c *Controller) wholeFrame(ctx context.Context, img image.Image, imagePath, reason string) Detection {
	det := Detection{
		Index:      0,
		CropPath:   imagePath,
		Bounds:     img.Bounds(),
		WholeFrame: true,
		Degraded:   reason,
	}
	analysis, err := c.classifier.Classify(ctx, img)
	if err != nil {
		c.degrade(&StageError{Stage: StageClassify, Index: -1, Err: err}, imagePath)
		det.Analysis = classify.Fallback("Unknown", err)
		return det
	}
	det.Analysis = analysis
	return det
}

func (c *Controller) degrade(err *StageError, path string) {
	c.metrics.Fallback(err.Stage)
	log.Warn().
		Err(err.Err).
		Str("stage", err.Stage).
		Int("index", err.Index).
		Str("path", path).
		Msg("Pipeline stage degraded")
}

func (c *Controller) prepareCropsDir() {
	if c.cfg.CropsDir == "" {
		return
	}
	if err := os.MkdirAll(c.cfg.CropsDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", c.cfg.CropsDir).Msg("Failed to create crops directory")
	}
}

func (c *Controller) cropPath(run string, i int, centroid *segment.Point) string {
	var name string
	if centroid != nil {
		name = fmt.Sprintf("crop_%s_%d_%d_%d.png", run, i, int(centroid.X), int(centroid.Y))
	} else {
		name = fmt.Sprintf("crop_%s_%d_%d.png", run, i, c.now().UnixMilli())
	}
	return filepath.Join(c.cfg.CropsDir, name)
}

func (c *Controller) writeCrop(crop image.Image, path string) error {
	if c.cfg.CropsDir == "" {
		return fmt.Errorf("no crops directory configured")
	}
	return c.saveCrop(crop, path)
}

func defaultLabel(i int) string {
	return fmt.Sprintf("Trash Object %d", i+1)
}
