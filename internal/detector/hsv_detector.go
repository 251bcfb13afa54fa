package detector

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// HSVDetector implements Detector with OpenCV colour thresholding and contour
// analysis.
//
// Algorithm:
// 1. Convert the BGR frame to HSV
// 2. Keep pixels inside the HSV range
// 3. Blur the mask to close small gaps
// 4. Find external contours with simple chain approximation
// 5. Select the contour with the largest area
// 6. Compute its convex hull and the hull area
type HSVDetector struct {
	blurSize int
}

// NewHSVDetector creates an HSVDetector. An invalid blur size falls back to
// DefaultBlurSize.
func NewHSVDetector(config Config) *HSVDetector {
	size := config.BlurSize
	if size <= 0 || size%2 == 0 {
		size = DefaultBlurSize
	}
	return &HSVDetector{blurSize: size}
}

// BlurSize returns the Gaussian kernel size in use.
func (d *HSVDetector) BlurSize() int {
	return d.blurSize
}

// Mask writes the blurred single-channel colour mask of frame into dst.
func (d *HSVDetector) Mask(frame *gocv.Mat, rng HSVRange, dst *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return ErrEmptyFrame
	}
	if frame.Channels() != 3 {
		return fmt.Errorf("expected 3-channel BGR frame, got %d channels", frame.Channels())
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(*frame, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, rng.Lower(), rng.Upper(), &mask)

	gocv.GaussianBlur(mask, dst, image.Pt(d.blurSize, d.blurSize), 0, 0, gocv.BorderDefault)
	return nil
}

// Detect finds the largest region of frame inside rng.
func (d *HSVDetector) Detect(frame *gocv.Mat, rng HSVRange) (*Region, error) {
	mask := gocv.NewMat()
	defer mask.Close()

	if err := d.Mask(frame, rng, &mask); err != nil {
		return nil, err
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	idx, area := largestContour(contours)
	if idx < 0 {
		return nil, ErrNoRegion
	}

	cnt := contours.At(idx)

	hull := gocv.NewMat()
	defer hull.Close()
	gocv.ConvexHull(cnt, &hull, false, true)

	hullPoints := gocv.NewPointVectorFromMat(hull)
	defer hullPoints.Close()

	return &Region{
		Contour:     cnt.ToPoints(),
		Hull:        hullPoints.ToPoints(),
		ContourArea: area,
		HullArea:    math.Max(0, gocv.ContourArea(hullPoints)),
		Bounds:      gocv.BoundingRect(cnt),
	}, nil
}

// Close is a no-op; HSVDetector holds no native resources between frames.
func (d *HSVDetector) Close() error {
	return nil
}

// largestContour returns the index and area of the biggest contour.
// Contours with zero area never win, so a frame of stray lines or single
// pixels reports -1.
func largestContour(contours gocv.PointsVector) (int, float64) {
	best := -1
	maxArea := 0.0

	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > maxArea {
			maxArea = area
			best = i
		}
	}

	return best, maxArea
}
