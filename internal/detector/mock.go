package detector

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu        sync.Mutex
	region    *Region
	err       error
	calls     int
	lastRange HSVRange
	closed    bool
}

// NewMockDetector creates a new MockDetector that reports ErrNoRegion until
// SetRegion is called.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetRegion sets the region that will be returned by Detect.
func (m *MockDetector) SetRegion(r *Region) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.region = r
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured region or error.
func (m *MockDetector) Detect(frame *gocv.Mat, rng HSVRange) (*Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastRange = rng

	if m.err != nil {
		return nil, m.err
	}
	if m.region == nil {
		return nil, ErrNoRegion
	}

	r := *m.region
	return &r, nil
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRange returns the HSV range passed to the most recent Detect call.
func (m *MockDetector) LastRange() HSVRange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRange
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// RectRegion returns a Region whose contour and hull are the corners of r.
func RectRegion(r image.Rectangle) *Region {
	pts := []image.Point{
		r.Min,
		{X: r.Max.X, Y: r.Min.Y},
		r.Max,
		{X: r.Min.X, Y: r.Max.Y},
	}
	area := float64(r.Dx() * r.Dy())
	return &Region{
		Contour:     pts,
		Hull:        append([]image.Point(nil), pts...),
		ContourArea: area,
		HullArea:    area,
		Bounds:      r,
	}
}

// FiveFingersRegion returns a preset region whose hull area classifies as five fingers.
func FiveFingersRegion() *Region {
	return RectRegion(image.Rect(100, 80, 540, 400))
}

// TwoFingersRegion returns a preset region whose hull area classifies as two fingers.
func TwoFingersRegion() *Region {
	return RectRegion(image.Rect(170, 115, 470, 365))
}

// ClosedFistRegion returns a preset region whose hull area classifies as a closed fist.
func ClosedFistRegion() *Region {
	return RectRegion(image.Rect(220, 165, 420, 315))
}
