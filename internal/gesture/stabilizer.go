package gesture

// Stabilizer suppresses per-frame flicker. A new shape becomes current only
// after it has been observed on the configured number of consecutive frames.
type Stabilizer struct {
	frames    int
	candidate Shape
	count     int
	current   Shape
}

// NewStabilizer creates a Stabilizer requiring frames consecutive observations.
// Values below 1 are treated as 1, which reports every change immediately.
func NewStabilizer(frames int) *Stabilizer {
	if frames < 1 {
		frames = 1
	}
	return &Stabilizer{
		frames:    frames,
		candidate: Unknown,
		current:   Unknown,
	}
}

// Observe records the shape seen on one frame. It returns the current stable
// shape and whether that shape changed with this observation.
func (s *Stabilizer) Observe(shape Shape) (Shape, bool) {
	if shape == s.candidate {
		s.count++
	} else {
		s.candidate = shape
		s.count = 1
	}

	if s.count >= s.frames && s.candidate != s.current {
		s.current = s.candidate
		return s.current, true
	}

	return s.current, false
}

// Current returns the last stable shape.
func (s *Stabilizer) Current() Shape {
	return s.current
}

// Frames returns the number of consecutive frames required for a change.
func (s *Stabilizer) Frames() int {
	return s.frames
}

// Reset forgets all observations.
func (s *Stabilizer) Reset() {
	s.candidate = Unknown
	s.count = 0
	s.current = Unknown
}
