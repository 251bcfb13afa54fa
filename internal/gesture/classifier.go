// Package gesture maps convex hull areas to hand-shape categories.
package gesture

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Shape is a hand-shape category.
type Shape string

const (
	// Unknown means no rule matched the observed hull area.
	Unknown Shape = "unknown"
	// FiveFingers is an open hand with all fingers spread.
	FiveFingers Shape = "five_fingers"
	// TwoFingers is a hand with two fingers raised.
	TwoFingers Shape = "two_fingers"
	// ClosedFist is a closed hand.
	ClosedFist Shape = "closed_fist"
)

// Shapes lists the classifiable shapes, largest hull first.
var Shapes = []Shape{FiveFingers, TwoFingers, ClosedFist}

// Label returns the text drawn on the output for the shape.
// Unknown has no label.
func (s Shape) Label() string {
	switch s {
	case FiveFingers:
		return "Five fingers."
	case TwoFingers:
		return "Two fingers."
	case ClosedFist:
		return "Closed fist."
	default:
		return ""
	}
}

// ParseShape converts a shape name to a Shape.
func ParseShape(name string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(name))) {
	case FiveFingers:
		return FiveFingers, nil
	case TwoFingers:
		return TwoFingers, nil
	case ClosedFist:
		return ClosedFist, nil
	case Unknown:
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown shape %q", name)
}

// Rule assigns Shape to hull areas strictly between Min and Max.
// A zero Max leaves the rule unbounded above.
type Rule struct {
	Shape Shape   `json:"shape"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max,omitempty"`
}

// upper returns the rule's exclusive upper bound.
func (r Rule) upper() float64 {
	if r.Max == 0 {
		return math.Inf(1)
	}
	return r.Max
}

// Contains reports whether area falls inside the rule's open interval.
// An unbounded rule contains every area above Min, +Inf included.
func (r Rule) Contains(area float64) bool {
	if area <= r.Min {
		return false
	}
	return r.Max == 0 || area < r.Max
}

// Default hull area thresholds in square pixels.
const (
	FiveFingersMinArea = 100000
	TwoFingersMinArea  = 50000
	ClosedFistMinArea  = 10000
)

// ThresholdTable is an ordered list of classification rules.
type ThresholdTable []Rule

// DefaultThresholds returns the stock table:
// area > 100000 is five fingers, 50000 < area < 100000 is two fingers
// and 10000 < area < 50000 is a closed fist. Boundary values are unknown.
func DefaultThresholds() ThresholdTable {
	return ThresholdTable{
		{Shape: FiveFingers, Min: FiveFingersMinArea},
		{Shape: TwoFingers, Min: TwoFingersMinArea, Max: FiveFingersMinArea},
		{Shape: ClosedFist, Min: ClosedFistMinArea, Max: TwoFingersMinArea},
	}
}

// ErrInvalidThresholds is returned by Validate for malformed tables.
var ErrInvalidThresholds = errors.New("invalid threshold table")

// Classify returns the shape of the first rule containing area.
// Negative or NaN areas are Unknown.
func (t ThresholdTable) Classify(area float64) Shape {
	if math.IsNaN(area) || area < 0 {
		return Unknown
	}
	for _, r := range t {
		if r.Contains(area) {
			return r.Shape
		}
	}
	return Unknown
}

// Validate checks that every rule names a known shape, has Min < Max
// and that no two rules overlap.
func (t ThresholdTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: no rules", ErrInvalidThresholds)
	}

	for i, r := range t {
		if r.Shape == Unknown || r.Shape.Label() == "" {
			return fmt.Errorf("%w: rule %d has shape %q", ErrInvalidThresholds, i, r.Shape)
		}
		if r.Min < 0 || math.IsNaN(r.Min) || math.IsNaN(r.Max) {
			return fmt.Errorf("%w: rule %d (%s) has invalid min %v", ErrInvalidThresholds, i, r.Shape, r.Min)
		}
		if r.Max != 0 && r.Min >= r.Max {
			return fmt.Errorf("%w: rule %d (%s) min %v >= max %v", ErrInvalidThresholds, i, r.Shape, r.Min, r.Max)
		}

		for j := 0; j < i; j++ {
			o := t[j]
			if r.Min < o.upper() && o.Min < r.upper() {
				return fmt.Errorf("%w: rules %d (%s) and %d (%s) overlap", ErrInvalidThresholds, j, o.Shape, i, r.Shape)
			}
		}
	}

	return nil
}

// Rule returns the rule for shape, if present.
func (t ThresholdTable) Rule(shape Shape) (Rule, bool) {
	for _, r := range t {
		if r.Shape == shape {
			return r, true
		}
	}
	return Rule{}, false
}

// Boundaries returns every finite bound in the table, ascending and deduplicated.
func (t ThresholdTable) Boundaries() []float64 {
	seen := make(map[float64]bool)
	var out []float64
	add := func(v float64) {
		if v <= 0 || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}
	for _, r := range t {
		add(r.Min)
		add(r.Max)
	}

	sort.Float64s(out)
	return out
}
