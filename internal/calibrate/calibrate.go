// Package calibrate provides live HSV tuning: a trackbar window for the six
// range bounds and a thread-safe holder for the range in use.
package calibrate

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/gesturehull/internal/detector"
	"github.com/ayusman/gesturehull/internal/log"
)

// WindowName is the title of the trackbar window.
const WindowName = "Trackbars"

// MaxPos is the upper end of every slider.
const MaxPos = 255

// Slider names in HSVRange field order.
var SliderNames = [6]string{"H_MIN", "H_MAX", "S_MIN", "S_MAX", "V_MIN", "V_MAX"}

// slider is the part of gocv.Trackbar the calibrator uses.
type slider interface {
	GetPos() int
	SetPos(pos int)
}

// Calibrator reads the HSV range from six trackbars.
type Calibrator struct {
	window  *gocv.Window
	sliders [6]slider
	last    detector.HSVRange

	tuning   *Tuning
	mu       sync.Mutex
	pending  *detector.HSVRange
	mirrored detector.HSVRange
}

// NewWindow opens the trackbar window with sliders set to initial.
func NewWindow(initial detector.HSVRange) *Calibrator {
	w := gocv.NewWindow(WindowName)

	var sliders [6]slider
	for i, name := range SliderNames {
		sliders[i] = w.CreateTrackbar(name, MaxPos)
	}

	c := newCalibrator(sliders, initial)
	c.window = w
	return c
}

func newCalibrator(sliders [6]slider, initial detector.HSVRange) *Calibrator {
	c := &Calibrator{sliders: sliders, last: initial}
	c.Set(initial)
	return c
}

// Set moves the sliders to r.
func (c *Calibrator) Set(r detector.HSVRange) {
	for i, v := range toPositions(r) {
		c.sliders[i].SetPos(v)
	}
	c.last = r
}

// Follow links the sliders to t. A range set on t moves the sliders on the
// next Range call, and valid slider changes are copied into t. Trackbars may
// only be touched from the window's thread, so Set is never called from t's
// listeners directly.
func (c *Calibrator) Follow(t *Tuning) {
	c.tuning = t
	t.OnChange(func(r detector.HSVRange) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if r == c.mirrored {
			return
		}
		c.pending = &r
	})
}

// Range returns the range selected by the sliders and logs the bounds
// whenever they change. The result may have min > max while the user is
// dragging; such a range simply matches nothing.
func (c *Calibrator) Range() detector.HSVRange {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	if pending != nil {
		c.Set(*pending)
	}

	var pos [6]int
	for i, s := range c.sliders {
		pos[i] = s.GetPos()
	}

	r := FromPositions(pos)
	if r != c.last {
		log.Info("calibration changed",
			"h_min", r.HMin, "h_max", r.HMax,
			"s_min", r.SMin, "s_max", r.SMax,
			"v_min", r.VMin, "v_max", r.VMax)
		c.last = r
		c.mirror(r)
	}
	return r
}

func (c *Calibrator) mirror(r detector.HSVRange) {
	if c.tuning == nil || r.Validate() != nil {
		return
	}
	c.mu.Lock()
	c.mirrored = r
	c.mu.Unlock()
	_ = c.tuning.Set(r)
}

// ShowMask displays the colour mask in the trackbar window.
func (c *Calibrator) ShowMask(mask gocv.Mat) {
	if c.window == nil || mask.Empty() {
		return
	}
	c.window.IMShow(mask)
}

// Close closes the trackbar window.
func (c *Calibrator) Close() error {
	if c.window == nil {
		return nil
	}
	err := c.window.Close()
	c.window = nil
	return err
}

// FromPositions converts slider positions, in SliderNames order, to a range.
// Positions outside 0-255 are clamped.
func FromPositions(pos [6]int) detector.HSVRange {
	return detector.HSVRange{
		HMin: clamp(pos[0]), HMax: clamp(pos[1]),
		SMin: clamp(pos[2]), SMax: clamp(pos[3]),
		VMin: clamp(pos[4]), VMax: clamp(pos[5]),
	}
}

func toPositions(r detector.HSVRange) [6]int {
	return [6]int{
		int(r.HMin), int(r.HMax),
		int(r.SMin), int(r.SMax),
		int(r.VMin), int(r.VMax),
	}
}

func clamp(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > MaxPos:
		return MaxPos
	default:
		return uint8(v)
	}
}

// Tuning holds the HSV range used by the pipeline when no trackbar window is
// open. It is safe for concurrent use; the HTTP API writes it while the frame
// loop reads it.
type Tuning struct {
	mu       sync.RWMutex
	rng      detector.HSVRange
	onChange []func(detector.HSVRange)
}

// NewTuning creates a Tuning holding initial.
func NewTuning(initial detector.HSVRange) *Tuning {
	return &Tuning{rng: initial}
}

// Range returns the current range.
func (t *Tuning) Range() detector.HSVRange {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rng
}

// Set validates and stores r, then notifies listeners.
func (t *Tuning) Set(r detector.HSVRange) error {
	if err := r.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	t.rng = r
	listeners := append([]func(detector.HSVRange){}, t.onChange...)
	t.mu.Unlock()

	// Call listeners outside the lock to prevent deadlocks
	for _, fn := range listeners {
		fn(r)
	}
	return nil
}

// OnChange registers fn to be called after every successful Set.
func (t *Tuning) OnChange(fn func(detector.HSVRange)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = append(t.onChange, fn)
}
