// Package testutil builds synthetic video frames for detector and pipeline
// tests, so no camera or image fixtures are needed.
package testutil

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Frame dimensions used by the fixtures.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// GloveColor is a BGR colour (HSV 105, 204, 150) inside the default glove range.
var GloveColor = color.RGBA{R: 30, G: 90, B: 150, A: 0}

// OffColor is a saturated red well outside the default glove range.
var OffColor = color.RGBA{R: 200, G: 20, B: 20, A: 0}

// Preset glove rectangles whose hull areas fall inside each default band.
var (
	FiveFingersRect = image.Rect(100, 80, 540, 400)  // 440x320
	TwoFingersRect  = image.Rect(170, 115, 470, 365) // 300x250
	ClosedFistRect  = image.Rect(220, 165, 420, 315) // 200x150
	SpeckRect       = image.Rect(300, 220, 340, 260) // 40x40
)

// BlankFrame returns a black BGR frame. The caller must Close it.
func BlankFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), FrameHeight, FrameWidth, gocv.MatTypeCV8UC3)
}

// RectFrame returns a black frame with r filled in c. The caller must Close it.
func RectFrame(r image.Rectangle, c color.RGBA) gocv.Mat {
	frame := BlankFrame()
	gocv.Rectangle(&frame, r, c, -1)
	return frame
}

// GloveRectFrame returns a black frame with r filled in GloveColor.
func GloveRectFrame(r image.Rectangle) gocv.Mat {
	return RectFrame(r, GloveColor)
}

// PolygonFrame returns a black frame with the polygon pts filled in GloveColor.
func PolygonFrame(pts []image.Point) gocv.Mat {
	frame := BlankFrame()

	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.FillPoly(&frame, pv, GloveColor)

	return frame
}

// LShape returns an L-shaped polygon whose hull is far larger than its area.
func LShape() []image.Point {
	return []image.Point{
		{X: 100, Y: 80},
		{X: 180, Y: 80},
		{X: 180, Y: 320},
		{X: 540, Y: 320},
		{X: 540, Y: 400},
		{X: 100, Y: 400},
	}
}

// Sequence returns one glove frame per rectangle. The caller must Close each.
func Sequence(rects ...image.Rectangle) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, len(rects))
	for _, r := range rects {
		var m gocv.Mat
		if r.Empty() {
			m = BlankFrame()
		} else {
			m = GloveRectFrame(r)
		}
		frames = append(frames, &m)
	}
	return frames
}

// CloseAll closes every frame in frames.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}
