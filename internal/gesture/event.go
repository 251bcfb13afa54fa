package gesture

import "time"

// Event reports a stable shape change.
type Event struct {
	Shape    Shape     `json:"shape"`
	Label    string    `json:"label"`
	Previous Shape     `json:"previous"`
	Area     float64   `json:"hull_area"`
	Frame    int64     `json:"frame"`
	Time     time.Time `json:"timestamp"`
}

// NewEvent builds an Event for a change from previous to shape.
func NewEvent(shape, previous Shape, area float64, frame int64, at time.Time) Event {
	return Event{
		Shape:    shape,
		Label:    shape.Label(),
		Previous: previous,
		Area:     area,
		Frame:    frame,
		Time:     at,
	}
}
