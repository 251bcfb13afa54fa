package detector

import "image"

// Region is the largest glove-coloured contour in a frame together with its
// convex hull. Points are copied out of OpenCV memory so a Region outlives
// the frame it came from.
type Region struct {
	Contour     []image.Point   `json:"contour"`
	Hull        []image.Point   `json:"hull"`
	ContourArea float64         `json:"contour_area"`
	HullArea    float64         `json:"hull_area"`
	Bounds      image.Rectangle `json:"bounds"`
}

// Solidity is the ratio of contour area to hull area, 0 when the hull is empty.
// Spread fingers leave gaps inside the hull and lower the ratio.
func (r *Region) Solidity() float64 {
	if r == nil || r.HullArea <= 0 {
		return 0
	}
	return r.ContourArea / r.HullArea
}
