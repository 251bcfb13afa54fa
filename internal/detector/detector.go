// Package detector isolates a glove region in a video frame by HSV colour
// thresholding and measures its convex hull.
package detector

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrNoRegion is returned when a frame contains no region inside the HSV range.
var ErrNoRegion = errors.New("no region detected")

// ErrEmptyFrame is returned when Detect is given a nil or empty frame.
var ErrEmptyFrame = errors.New("frame is empty")

// Detector defines the interface for region detection implementations.
type Detector interface {
	// Detect finds the largest region of frame inside rng and computes its
	// convex hull. Returns ErrNoRegion when nothing matches.
	Detect(frame *gocv.Mat, rng HSVRange) (*Region, error)

	// Close releases any resources held by the detector.
	Close() error
}

// DefaultBlurSize is the Gaussian kernel applied to the colour mask (5x5).
const DefaultBlurSize = 5

// Config holds configuration options for region detection.
type Config struct {
	// BlurSize is the side of the square Gaussian kernel. Must be odd and positive.
	BlurSize int
}

// DefaultConfig returns a Config with the stock 5x5 blur.
func DefaultConfig() Config {
	return Config{
		BlurSize: DefaultBlurSize,
	}
}
