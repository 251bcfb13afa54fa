// Package capture provides video frame sources using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrSourceNotOpen is returned when trying to read from a source that is not open.
var ErrSourceNotOpen = errors.New("capture source is not open")

// ErrSourceClosed is returned when the source stops producing frames,
// for example at the end of a video file or when a camera is unplugged.
var ErrSourceClosed = errors.New("capture source closed")

// Source defines the interface for frame producers.
type Source interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller is responsible for closing it.
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
}

// Options configures a Camera.
type Options struct {
	Width  int
	Height int
	FPS    int
}

// DefaultOptions returns 640x480 at 15 FPS.
func DefaultOptions() Options {
	return Options{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		FPS:    DefaultFPS,
	}
}

// Camera reads frames from a camera device, video file or stream URL.
type Camera struct {
	source  string
	opts    Options
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewCamera creates a Camera for source, which is either a device index such
// as "0" or a file path or URL.
func NewCamera(source string, opts Options) *Camera {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}

	return &Camera{
		source: strings.TrimSpace(source),
		opts:   opts,
	}
}

// ParseSource returns the device index for numeric sources and the string
// itself otherwise, in the form gocv.OpenVideoCapture accepts.
func ParseSource(source string) interface{} {
	if id, err := strconv.Atoi(source); err == nil && id >= 0 {
		return id
	}
	return source
}

// IsDevice reports whether the camera reads from a device index.
func (c *Camera) IsDevice() bool {
	_, ok := ParseSource(c.source).(int)
	return ok
}

// Source returns the configured source string.
func (c *Camera) Source() string {
	return c.source
}

// Options returns the capture options.
func (c *Camera) Options() Options {
	return c.opts
}

// Open opens the capture source. Devices are asked for the configured
// resolution and frame rate; files play back at their own settings.
func (c *Camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	if c.source == "" {
		return fmt.Errorf("open capture: empty source")
	}

	capture, err := gocv.OpenVideoCapture(ParseSource(c.source))
	if err != nil {
		return fmt.Errorf("open capture %q: %w", c.source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open capture %q: device not available", c.source)
	}

	if c.IsDevice() {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(c.opts.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(c.opts.Height))
		capture.Set(gocv.VideoCaptureFPS, float64(c.opts.FPS))
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the source and releases resources.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame. A failed read means the source has ended
// and is reported as ErrSourceClosed.
// The caller is responsible for closing the returned Mat.
func (c *Camera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, ErrSourceClosed
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrSourceClosed
	}

	return &mat, nil
}

// IsOpen returns true if the source is currently open.
func (c *Camera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
