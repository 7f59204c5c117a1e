package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tirth2116/OceanEye/internal/classify"
	"github.com/Tirth2116/OceanEye/internal/pipeline"
)

type recordingSender struct {
	reports []Report
	failOn  map[string]bool
}

func (s *recordingSender) Send(_ context.Context, r Report) error {
	if s.failOn[r.TrashType] {
		return errors.New("status 500")
	}
	s.reports = append(s.reports, r)
	return nil
}

type mapPublisher struct {
	published []string
	fail      map[string]bool
}

func (p *mapPublisher) Publish(_ context.Context, cropPath string) (string, error) {
	if p.fail[cropPath] {
		return "", errors.New("disk full")
	}
	p.published = append(p.published, cropPath)
	return "/detections/" + filepath.Base(cropPath), nil
}

func TestForward(t *testing.T) {
	dir := t.TempDir()
	frame := filepath.Join(dir, "frame.png")
	if err := os.WriteFile(frame, []byte("not really a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	dets := []pipeline.Detection{
		{Analysis: classify.Default("bottle"), CropPath: filepath.Join(dir, "crop_0.png")},
		{Analysis: classify.Default("net"), CropPath: filepath.Join(dir, "crop_1.png")},
		{Analysis: classify.Default("can"), CropPath: filepath.Join(dir, "crop_2.png")},
		{Analysis: classify.Default("bag")},
	}
	send := &recordingSender{failOn: map[string]bool{"net": true}}
	pub := &mapPublisher{fail: map[string]bool{filepath.Join(dir, "crop_2.png"): true}}
	f := &Forwarder{client: send, publisher: pub}

	res := f.Forward(context.Background(), frame, dets)

	if res.Found != 4 || res.Sent != 2 || !res.Success {
		t.Errorf("result = %+v, want 4 found, 2 sent", res)
	}
	if len(res.Errors) != 2 {
		t.Errorf("errors = %v, want 2", res.Errors)
	}
	if got := pub.published[len(pub.published)-1]; got != frame {
		t.Errorf("detection without crop published %q, want source frame", got)
	}
	for _, r := range send.reports {
		if r.Location != DefaultLocation || r.Confidence != DefaultConfidence {
			t.Errorf("report = %+v", r)
		}
	}
	if send.reports[1].Image != "/detections/frame.png" {
		t.Errorf("image = %q", send.reports[1].Image)
	}
}

func TestForwardSameMillisecondKeepsEveryCrop(t *testing.T) {
	src := t.TempDir()
	var dets []pipeline.Detection
	for i, label := range []string{"bottle", "net", "can"} {
		crop := filepath.Join(src, fmt.Sprintf("crop_%d.png", i))
		if err := os.WriteFile(crop, []byte(label), 0o644); err != nil {
			t.Fatal(err)
		}
		dets = append(dets, pipeline.Detection{Analysis: classify.Default(label), CropPath: crop})
	}

	public := t.TempDir()
	pub := NewLocalPublisher(public, "")
	pub.now = func() time.Time { return fixedNow }
	send := &recordingSender{}
	f := &Forwarder{client: send, publisher: pub}

	res := f.Forward(context.Background(), filepath.Join(src, "frame.png"), dets)
	if res.Sent != 3 {
		t.Fatalf("sent = %d, want 3 (errors %v)", res.Sent, res.Errors)
	}

	urls := make(map[string]bool)
	for _, r := range send.reports {
		urls[r.Image] = true
		data, err := os.ReadFile(filepath.Join(public, filepath.Base(r.Image)))
		if err != nil || string(data) != r.TrashType {
			t.Errorf("report %s points at %q (%v)", r.TrashType, data, err)
		}
	}
	if len(urls) != 3 {
		t.Errorf("distinct image urls = %d, want 3", len(urls))
	}
	entries, _ := os.ReadDir(public)
	if len(entries) != 3 {
		t.Errorf("published files = %d, want 3", len(entries))
	}
}

func TestForwardNothingSent(t *testing.T) {
	f := &Forwarder{client: &recordingSender{}, publisher: &mapPublisher{}}
	res := f.Forward(context.Background(), filepath.Join(t.TempDir(), "x.png"), nil)
	if res.Success || res.Found != 0 {
		t.Errorf("result = %+v", res)
	}
}
