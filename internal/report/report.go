// Package report collects per-frame hull areas for a run and summarises them as
// statistics and a PNG plot.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ayusman/gesturehull/internal/gesture"
)

// ErrNoSamples is returned when a plot is requested before any frame with a
// region was recorded.
var ErrNoSamples = errors.New("no samples recorded")

// Plot size.
const (
	PlotWidth  = 12 * vg.Inch
	PlotHeight = 5 * vg.Inch
)

// Sample is one recorded frame.
type Sample struct {
	Frame    int64         `json:"frame"`
	Area     float64       `json:"area"`
	Shape    gesture.Shape `json:"shape"`
	Detected bool          `json:"detected"`
}

// Summary describes the recorded frames. Area statistics cover only frames in
// which a region was detected. Mean, StdDev, Min and Max cover every such
// frame; Median and P90 cover the samples still retained.
type Summary struct {
	Frames         int                   `json:"frames"`
	NoRegionFrames int                   `json:"no_region_frames"`
	Mean           float64               `json:"mean_area"`
	StdDev         float64               `json:"std_area"`
	Median         float64               `json:"median_area"`
	P90            float64               `json:"p90_area"`
	Min            float64               `json:"min_area"`
	Max            float64               `json:"max_area"`
	ShapeCounts    map[gesture.Shape]int `json:"shape_counts"`
}

// Recorder accumulates samples. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
	// next is the slot the next sample overwrites once samples is full.
	next    int
	limit   int
	frames  int
	missing int
	counts  map[gesture.Shape]int
	areas   running
}

// running keeps Welford's mean and variance with the extremes.
type running struct {
	n        int
	mean, m2 float64
	min, max float64
}

func (a *running) add(x float64) {
	if a.n == 0 || x < a.min {
		a.min = x
	}
	if a.n == 0 || x > a.max {
		a.max = x
	}
	a.n++
	d := x - a.mean
	a.mean += d / float64(a.n)
	a.m2 += d * (x - a.mean)
}

// stdDev is the sample standard deviation, 0 for fewer than two values.
func (a *running) stdDev() float64 {
	if a.n < 2 {
		return 0
	}
	return math.Sqrt(a.m2 / float64(a.n-1))
}

// NewRecorder creates a Recorder keeping at most limit samples for plotting.
// Totals and shape counts always cover every frame. A limit <= 0 keeps all.
func NewRecorder(limit int) *Recorder {
	return &Recorder{
		limit:  limit,
		counts: make(map[gesture.Shape]int),
	}
}

// Add records one frame. detected is false for frames without a region.
func (r *Recorder) Add(frame int64, area float64, shape gesture.Shape, detected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames++
	r.counts[shape]++
	if !detected {
		r.missing++
	} else if !math.IsNaN(area) {
		r.areas.add(area)
	}

	smp := Sample{Frame: frame, Area: area, Shape: shape, Detected: detected}
	if r.limit > 0 && len(r.samples) == r.limit {
		r.samples[r.next] = smp
		r.next = (r.next + 1) % r.limit
		return
	}
	r.samples = append(r.samples, smp)
}

// Samples returns a copy of the retained samples in recording order.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ordered()
}

// ordered copies the ring oldest first. r.mu must be held.
func (r *Recorder) ordered() []Sample {
	out := make([]Sample, 0, len(r.samples))
	out = append(out, r.samples[r.next:]...)
	return append(out, r.samples[:r.next]...)
}

// Len returns the number of frames recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Reset discards everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = nil
	r.next = 0
	r.areas = running{}
	r.frames = 0
	r.missing = 0
	r.counts = make(map[gesture.Shape]int)
}

// Summary computes statistics over the recorded frames.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	s := Summary{
		Frames:         r.frames,
		NoRegionFrames: r.missing,
		Mean:           r.areas.mean,
		StdDev:         r.areas.stdDev(),
		Min:            r.areas.min,
		Max:            r.areas.max,
		ShapeCounts:    make(map[gesture.Shape]int, len(r.counts)),
	}
	for shape, n := range r.counts {
		s.ShapeCounts[shape] = n
	}
	areas := make([]float64, 0, len(r.samples))
	for _, smp := range r.samples {
		if smp.Detected && !math.IsNaN(smp.Area) {
			areas = append(areas, smp.Area)
		}
	}
	r.mu.Unlock()

	if len(areas) == 0 {
		return s
	}

	sort.Float64s(areas)
	s.Median = stat.Quantile(0.5, stat.Empirical, areas, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, areas, nil)
	return s
}

// WritePlot renders hull area over frame index with a dashed line at every
// classification boundary. The image format follows the file extension.
func (r *Recorder) WritePlot(path string, thresholds gesture.ThresholdTable) error {
	samples := r.Samples()

	pts := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		if s.Detected {
			pts = append(pts, plotter.XY{X: float64(s.Frame), Y: s.Area})
		}
	}
	if len(pts) == 0 {
		return ErrNoSamples
	}

	p := plot.New()
	p.Title.Text = "Convex hull area"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Area (px²)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("area line: %w", err)
	}
	line.Color = color.RGBA{R: 30, G: 90, B: 200, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("hull area", line)

	bounds := thresholds.Boundaries()
	for _, b := range bounds {
		level := b
		fn := plotter.NewFunction(func(float64) float64 { return level })
		fn.Color = color.RGBA{R: 200, G: 40, B: 40, A: 255}
		fn.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		fn.Width = vg.Points(1)
		p.Add(fn)
	}
	if len(bounds) > 0 {
		p.Y.Max = math.Max(p.Y.Max, bounds[len(bounds)-1]*1.1)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(PlotWidth, PlotHeight, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
