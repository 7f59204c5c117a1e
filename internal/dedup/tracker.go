package dedup

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/Tirth2116/OceanEye/internal/metrics"
	"github.com/Tirth2116/OceanEye/internal/segment"
)

// Tracker applies the dedup rule against a persistent store.
type Tracker struct {
	store     Store
	threshold float64
	metrics   *metrics.Metrics
}

// NewTracker returns a tracker over store. A negative or NaN threshold selects
// DefaultThreshold; zero merges only identical centroids. m may be nil.
func NewTracker(store Store, threshold float64, m *metrics.Metrics) *Tracker {
	if threshold < 0 || math.IsNaN(threshold) {
		threshold = DefaultThreshold
	}
	return &Tracker{store: store, threshold: threshold, metrics: m}
}

// Threshold returns the distance in effect.
func (t *Tracker) Threshold() float64 {
	return t.threshold
}

// Session is one load, decide, append, save cycle against the store.
type Session struct {
	tracker  *Tracker
	index    *Index
	accepted int
}

// Begin loads the store and starts a session.
func (t *Tracker) Begin(ctx context.Context) (*Session, error) {
	points, err := t.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("store", t.store.Describe()).Int("seen", len(points)).Msg("Seen store loaded")
	return &Session{tracker: t, index: NewIndex(points)}, nil
}

// Observe decides whether mask is a new object and, if so, records its
// centroid. An empty mask is neither new nor recorded; ok is false for it.
func (s *Session) Observe(mask *segment.Mask) (c segment.Point, isNew, ok bool) {
	c, ok = mask.Centroid()
	if !ok {
		s.tracker.metrics.DedupDecision("empty")
		return segment.Point{}, false, false
	}
	if s.index.Near(c, s.tracker.threshold) {
		s.tracker.metrics.DedupDecision("duplicate")
		return c, false, true
	}
	s.index.Add(c)
	s.accepted++
	s.tracker.metrics.DedupDecision("new")
	return c, true, true
}

// Accepted returns how many new objects this session recorded.
func (s *Session) Accepted() int {
	return s.accepted
}

// Commit persists the session's points. Nothing is written when no new object
// was accepted.
func (s *Session) Commit(ctx context.Context) error {
	if s.accepted == 0 {
		return nil
	}
	if err := s.tracker.store.Save(ctx, s.index.Points()); err != nil {
		return fmt.Errorf("save seen store %s: %w", s.tracker.store.Describe(), err)
	}
	return nil
}

// IsNewAndRecord runs a single-mask session: it reports whether mask is a new
// object and persists its centroid if so. Empty masks report false.
func (t *Tracker) IsNewAndRecord(ctx context.Context, mask *segment.Mask) (bool, error) {
	s, err := t.Begin(ctx)
	if err != nil {
		return false, err
	}
	_, isNew, _ := s.Observe(mask)
	if err := s.Commit(ctx); err != nil {
		return isNew, err
	}
	return isNew, nil
}
