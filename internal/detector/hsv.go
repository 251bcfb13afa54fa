package detector

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrInvalidRange is returned when a lower bound exceeds its upper bound.
var ErrInvalidRange = errors.New("invalid HSV range")

// HSVRange is the colour window used to isolate the glove. Each bound is a
// byte, matching OpenCV's 8-bit HSV representation (hue spans 0-180).
type HSVRange struct {
	HMin uint8 `json:"h_min"`
	HMax uint8 `json:"h_max"`
	SMin uint8 `json:"s_min"`
	SMax uint8 `json:"s_max"`
	VMin uint8 `json:"v_min"`
	VMax uint8 `json:"v_max"`
}

// DefaultRange returns the calibrated glove colour.
func DefaultRange() HSVRange {
	return HSVRange{
		HMin: 63, HMax: 255,
		SMin: 136, SMax: 255,
		VMin: 38, VMax: 157,
	}
}

// Lower returns the inclusive lower bound as a scalar.
func (r HSVRange) Lower() gocv.Scalar {
	return gocv.NewScalar(float64(r.HMin), float64(r.SMin), float64(r.VMin), 0)
}

// Upper returns the inclusive upper bound as a scalar.
func (r HSVRange) Upper() gocv.Scalar {
	return gocv.NewScalar(float64(r.HMax), float64(r.SMax), float64(r.VMax), 0)
}

// Validate checks that every minimum is at most its maximum.
func (r HSVRange) Validate() error {
	if r.HMin > r.HMax {
		return fmt.Errorf("%w: h_min %d > h_max %d", ErrInvalidRange, r.HMin, r.HMax)
	}
	if r.SMin > r.SMax {
		return fmt.Errorf("%w: s_min %d > s_max %d", ErrInvalidRange, r.SMin, r.SMax)
	}
	if r.VMin > r.VMax {
		return fmt.Errorf("%w: v_min %d > v_max %d", ErrInvalidRange, r.VMin, r.VMax)
	}
	return nil
}

// Contains reports whether an HSV triple lies inside the range.
func (r HSVRange) Contains(h, s, v uint8) bool {
	return h >= r.HMin && h <= r.HMax &&
		s >= r.SMin && s <= r.SMax &&
		v >= r.VMin && v <= r.VMax
}

func (r HSVRange) String() string {
	return fmt.Sprintf("H[%d-%d] S[%d-%d] V[%d-%d]", r.HMin, r.HMax, r.SMin, r.SMax, r.VMin, r.VMax)
}
