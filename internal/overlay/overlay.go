// Package overlay renders detection results onto an output canvas.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/gesturehull/internal/detector"
	"github.com/ayusman/gesturehull/internal/gesture"
)

// Drawing style.
var (
	// ContourColor is BGR (0, 140, 0).
	ContourColor = color.RGBA{R: 0, G: 140, B: 0, A: 0}
	// HullColor is BGR (0, 0, 255).
	HullColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	TextColor = color.RGBA{R: 255, G: 255, B: 255, A: 0}

	LabelOrigin = image.Pt(10, 50)
	AreaOrigin  = image.Pt(10, 90)
)

const (
	LineThickness  = 2
	LabelScale     = 2.0
	LabelThickness = 2
	AreaScale      = 0.8
	AreaThickness  = 1

	// NoRegionLabel is drawn when a frame has no glove region.
	NoRegionLabel = "No region detected."
)

// Options controls what Annotate draws besides the contour, hull and label.
type Options struct {
	// ShowArea prints the hull area under the label.
	ShowArea bool
}

// Annotator draws results on a black canvas the size of the input frame.
type Annotator struct {
	opts Options
}

// New creates an Annotator.
func New(opts Options) *Annotator {
	return &Annotator{opts: opts}
}

// Canvas returns a black Mat with the size and type of frame.
// The caller must Close it.
func Canvas(frame *gocv.Mat) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), frame.Rows(), frame.Cols(), frame.Type())
}

// Annotate renders region and shape for frame. A nil region draws
// NoRegionLabel. The caller must Close the returned Mat.
func (a *Annotator) Annotate(frame *gocv.Mat, region *detector.Region, shape gesture.Shape) gocv.Mat {
	canvas := Canvas(frame)

	if region == nil {
		DrawLabel(&canvas, NoRegionLabel)
		return canvas
	}

	DrawLabel(&canvas, shape.Label())
	DrawRegion(&canvas, region)

	if a.opts.ShowArea {
		gocv.PutTextWithParams(&canvas, fmt.Sprintf("hull area: %.0f", region.HullArea), AreaOrigin,
			gocv.FontHersheySimplex, AreaScale, TextColor, AreaThickness, gocv.Line8, false)
	}

	return canvas
}

// DrawLabel writes text at LabelOrigin. Empty text draws nothing.
func DrawLabel(dst *gocv.Mat, text string) {
	if text == "" {
		return
	}
	gocv.PutTextWithParams(dst, text, LabelOrigin, gocv.FontHersheySimplex, LabelScale, TextColor,
		LabelThickness, gocv.Line8, false)
}

// DrawRegion outlines the contour in ContourColor and the hull in HullColor.
func DrawRegion(dst *gocv.Mat, region *detector.Region) {
	if region == nil {
		return
	}
	drawPolygon(dst, region.Contour, ContourColor)
	drawPolygon(dst, region.Hull, HullColor)
}

func drawPolygon(dst *gocv.Mat, pts []image.Point, c color.RGBA) {
	if len(pts) == 0 {
		return
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.DrawContours(dst, pv, 0, c, LineThickness)
}
