// Package app runs the gesturehull frame loop: read a frame, classify its glove
// region, show it and react to stable shape changes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/gesturehull/internal/capture"
	"github.com/ayusman/gesturehull/internal/detector"
	"github.com/ayusman/gesturehull/internal/display"
	"github.com/ayusman/gesturehull/internal/gesture"
	"github.com/ayusman/gesturehull/internal/log"
	"github.com/ayusman/gesturehull/internal/overlay"
	"github.com/ayusman/gesturehull/internal/plugin"
	"github.com/ayusman/gesturehull/internal/report"
	"github.com/ayusman/gesturehull/internal/store"
)

// DefaultRecorderLimit caps the samples kept for the area plot.
const DefaultRecorderLimit = 100000

// PausedLabel is drawn on the output while detection is disabled.
const PausedLabel = "Paused."

// ErrNoSource is returned by New without a frame source.
var ErrNoSource = errors.New("app: no frame source")

// ErrNoDetector is returned by New without a detector.
var ErrNoDetector = errors.New("app: no detector")

// RangeSource supplies the HSV range for each frame.
type RangeSource interface {
	Range() detector.HSVRange
}

// MaskViewer is implemented by range sources that preview the colour mask.
type MaskViewer interface {
	ShowMask(mask gocv.Mat)
}

// masker is implemented by detectors that expose their binary mask.
type masker interface {
	Mask(frame *gocv.Mat, rng detector.HSVRange, dst *gocv.Mat) error
}

// View shows frames and reports key presses. display.Display implements it.
type View interface {
	Show(input, output gocv.Mat)
	Poll() display.Action
	Close() error
}

// Config holds the collaborators of an App. Source and Detector are required.
type Config struct {
	Source       capture.Source
	SourceName   string
	Detector     detector.Detector
	Thresholds   gesture.ThresholdTable
	StableFrames int
	// Ranges defaults to a fixed detector.DefaultRange.
	Ranges RangeSource
	// View is nil in headless mode.
	View        View
	ShowArea    bool
	SnapshotDir string
	// Store records a session and its detections when set.
	Store      *store.Store
	Recorder   *report.Recorder
	Dispatcher *plugin.Dispatcher
}

type fixedRange detector.HSVRange

func (f fixedRange) Range() detector.HSVRange { return detector.HSVRange(f) }

// App owns the frame loop.
type App struct {
	config     Config
	pipeline   *Pipeline
	stabilizer *gesture.Stabilizer
	recorder   *report.Recorder
	// logger carries the source and session of the current run.
	logger *slog.Logger

	mu        sync.RWMutex
	enabled   bool
	sessionID string
	onFrame   []func(*Result)
	onEvent   []func(gesture.Event)
}

// New creates an App. Detection starts enabled.
func New(config Config) (*App, error) {
	if config.Source == nil {
		return nil, ErrNoSource
	}
	if config.Detector == nil {
		return nil, ErrNoDetector
	}
	if len(config.Thresholds) == 0 {
		config.Thresholds = gesture.DefaultThresholds()
	}
	if err := config.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if config.Ranges == nil {
		config.Ranges = fixedRange(detector.DefaultRange())
	}
	if config.Recorder == nil {
		config.Recorder = report.NewRecorder(DefaultRecorderLimit)
	}

	annotator := overlay.New(overlay.Options{ShowArea: config.ShowArea})
	return &App{
		config:     config,
		pipeline:   NewPipeline(config.Detector, config.Thresholds, annotator),
		stabilizer: gesture.NewStabilizer(config.StableFrames),
		recorder:   config.Recorder,
		logger:     log.L(),
		enabled:    true,
	}, nil
}

// SetEnabled pauses or resumes classification. Frames are still shown while paused.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled != enabled {
		log.Info("detection toggled", "enabled", enabled)
	}
	a.enabled = enabled
}

// IsEnabled reports whether classification is running.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnFrame registers fn to receive every processed frame. The Result and its
// Mat are only valid for the duration of the call.
func (a *App) OnFrame(fn func(*Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onFrame = append(a.onFrame, fn)
}

// OnEvent registers fn to receive stable shape changes.
func (a *App) OnEvent(fn func(gesture.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onEvent = append(a.onEvent, fn)
}

// Recorder returns the per-frame recorder.
func (a *App) Recorder() *report.Recorder {
	return a.recorder
}

// Current returns the last stable shape.
func (a *App) Current() gesture.Shape {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stabilizer.Current()
}

// SessionID returns the id of the session being recorded, if any.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// Run opens the source and processes frames until ctx is cancelled, the
// source stops producing frames or the view asks to quit. The source is
// always closed on return.
func (a *App) Run(ctx context.Context) error {
	src := a.config.Source
	if err := src.Open(); err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer log.Info("Exiting.")
	defer func() {
		if err := src.Close(); err != nil {
			log.Warn("failed to close source", "error", err)
		}
	}()

	a.logger = log.With("source", a.config.SourceName)
	a.startSession()
	defer a.finishSession()
	if a.config.Dispatcher != nil {
		defer a.config.Dispatcher.Wait()
	}

	a.logger.Info("pipeline started", "stable_frames", a.stabilizer.Frames())

	for {
		select {
		case <-ctx.Done():
			log.Info("run cancelled")
			return nil
		default:
		}

		frame, err := src.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrSourceClosed) {
				log.Info("frame read failed, stopping", "error", err)
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		quit := a.step(ctx, frame)
		frame.Close()
		if quit {
			return nil
		}
	}
}

// step handles one frame and reports whether the loop should end.
func (a *App) step(ctx context.Context, frame *gocv.Mat) bool {
	rng := a.config.Ranges.Range()
	a.previewMask(frame, rng)

	var output gocv.Mat
	if a.IsEnabled() {
		res, err := a.pipeline.Process(frame, rng)
		if err != nil {
			log.Warn("frame processing failed", "error", err)
			return a.poll(nil)
		}
		defer res.Close()

		a.observe(ctx, res)
		for _, fn := range a.frameHandlers() {
			fn(res)
		}
		output = res.Annotated
	} else {
		output = overlay.Canvas(frame)
		defer output.Close()
		overlay.DrawLabel(&output, PausedLabel)
	}

	if a.config.View == nil {
		return false
	}
	a.config.View.Show(*frame, output)
	return a.poll(&output)
}

func (a *App) poll(output *gocv.Mat) bool {
	if a.config.View == nil {
		return false
	}
	switch a.config.View.Poll() {
	case display.ActionQuit:
		log.Info("quit requested")
		return true
	case display.ActionSnapshot:
		if output == nil {
			return false
		}
		path, err := display.SaveSnapshot(a.config.SnapshotDir, *output, time.Now())
		if err != nil {
			log.Warn("snapshot failed", "error", err)
		} else {
			log.Info("snapshot saved", "path", path)
		}
	}
	return false
}

// observe records res and fires events on a stable change.
func (a *App) observe(ctx context.Context, res *Result) {
	a.recorder.Add(res.Frame, res.Area, res.Shape, res.Detected())

	a.mu.Lock()
	previous := a.stabilizer.Current()
	current, changed := a.stabilizer.Observe(res.Shape)
	a.mu.Unlock()
	if !changed {
		return
	}

	ev := gesture.NewEvent(current, previous, res.Area, res.Frame, res.Timestamp)
	a.logger.Info("shape changed", "shape", current, "previous", previous, "hull_area", res.Area,
		"solidity", res.Region.Solidity(), "frame", res.Frame)

	a.persist(ev)
	if a.config.Dispatcher != nil {
		a.config.Dispatcher.Go(ctx, ev)
	}
	for _, fn := range a.eventHandlers() {
		fn(ev)
	}
}

func (a *App) previewMask(frame *gocv.Mat, rng detector.HSVRange) {
	viewer, ok := a.config.Ranges.(MaskViewer)
	if !ok {
		return
	}
	m, ok := a.config.Detector.(masker)
	if !ok {
		return
	}

	mask := gocv.NewMat()
	defer mask.Close()
	if err := m.Mask(frame, rng, &mask); err != nil {
		log.Debug("mask preview failed", "error", err)
		return
	}
	viewer.ShowMask(mask)
}

func (a *App) frameHandlers() []func(*Result) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.onFrame
}

func (a *App) eventHandlers() []func(gesture.Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.onEvent
}

func (a *App) startSession() {
	if a.config.Store == nil {
		return
	}
	s := &store.Session{
		ID:     uuid.New().String(),
		Source: a.config.SourceName,
	}
	if err := a.config.Store.Sessions().Create(s); err != nil {
		log.Warn("failed to create session", "error", err)
		return
	}

	a.mu.Lock()
	a.sessionID = s.ID
	a.mu.Unlock()
	a.logger = a.logger.With("session", s.ID)
	a.logger.Debug("session started")
}

func (a *App) persist(ev gesture.Event) {
	id := a.SessionID()
	if id == "" {
		return
	}
	d := &store.Detection{
		SessionID:  id,
		Frame:      ev.Frame,
		Shape:      ev.Shape,
		Previous:   ev.Previous,
		HullArea:   ev.Area,
		DetectedAt: ev.Time,
	}
	if err := a.config.Store.Detections().Create(d); err != nil {
		a.logger.Warn("failed to record detection", "error", err)
	}
}

func (a *App) finishSession() {
	id := a.SessionID()
	if id == "" {
		return
	}
	sum := a.recorder.Summary()
	stats := store.SessionStats{
		Frames:         sum.Frames,
		NoRegionFrames: sum.NoRegionFrames,
		MeanArea:       sum.Mean,
		StdArea:        sum.StdDev,
		ShapeCounts:    sum.ShapeCounts,
	}
	if err := a.config.Store.Sessions().Finish(id, time.Now(), stats); err != nil {
		a.logger.Warn("failed to finish session", "error", err)
		return
	}
	a.logger.Info("session finished", "frames", sum.Frames, "no_region_frames", sum.NoRegionFrames)
}
