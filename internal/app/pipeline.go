package app

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/gesturehull/internal/detector"
	"github.com/ayusman/gesturehull/internal/gesture"
	"github.com/ayusman/gesturehull/internal/overlay"
)

// Result is the outcome of processing a single frame.
type Result struct {
	Frame     int64
	Timestamp time.Time
	// Region is nil when the frame had no pixels inside the HSV range.
	Region *detector.Region
	Shape  gesture.Shape
	Area   float64
	// Annotated is the output canvas. Close releases it.
	Annotated gocv.Mat
	// Err is detector.ErrNoRegion for frames without a region.
	Err error
}

// Detected reports whether the frame contained a region.
func (r *Result) Detected() bool {
	return r.Region != nil
}

// Close releases the annotated canvas.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	return r.Annotated.Close()
}

// Pipeline runs detect, classify and annotate on one frame at a time.
type Pipeline struct {
	detector   detector.Detector
	thresholds gesture.ThresholdTable
	annotator  *overlay.Annotator
	frames     atomic.Int64
	now        func() time.Time
}

// NewPipeline creates a Pipeline. A nil annotator uses overlay defaults.
func NewPipeline(d detector.Detector, thresholds gesture.ThresholdTable, annotator *overlay.Annotator) *Pipeline {
	if annotator == nil {
		annotator = overlay.New(overlay.Options{})
	}
	if len(thresholds) == 0 {
		thresholds = gesture.DefaultThresholds()
	}
	return &Pipeline{
		detector:   d,
		thresholds: thresholds,
		annotator:  annotator,
		now:        time.Now,
	}
}

// Process classifies frame using rng. Frames without a region produce an
// Unknown result with Err set; only detector faults are returned as errors.
func (p *Pipeline) Process(frame *gocv.Mat, rng detector.HSVRange) (*Result, error) {
	if frame == nil || frame.Empty() {
		return nil, detector.ErrEmptyFrame
	}

	region, err := p.detector.Detect(frame, rng)
	if err != nil && !errors.Is(err, detector.ErrNoRegion) {
		return nil, fmt.Errorf("detect: %w", err)
	}

	res := &Result{
		Frame:     p.frames.Add(1),
		Timestamp: p.now(),
		Shape:     gesture.Unknown,
	}

	if region == nil {
		res.Err = detector.ErrNoRegion
	} else {
		res.Region = region
		res.Area = region.HullArea
		res.Shape = p.thresholds.Classify(region.HullArea)
	}

	res.Annotated = p.annotator.Annotate(frame, res.Region, res.Shape)
	return res, nil
}

// Frames returns how many frames have been processed.
func (p *Pipeline) Frames() int64 {
	return p.frames.Load()
}

// Thresholds returns the table used for classification.
func (p *Pipeline) Thresholds() gesture.ThresholdTable {
	return p.thresholds
}
