package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/gesturehull/internal/gesture"
)

// Detection is a stable shape change recorded during a session.
type Detection struct {
	ID         int64
	SessionID  string
	Frame      int64
	Shape      gesture.Shape
	Previous   gesture.Shape
	HullArea   float64
	DetectedAt time.Time
}

// DetectionRepository provides operations for detections.
type DetectionRepository struct {
	db *sql.DB
}

// Detections returns the detection repository for this store.
func (s *Store) Detections() *DetectionRepository {
	return &DetectionRepository{db: s.db}
}

// Create inserts a detection and sets its ID.
func (r *DetectionRepository) Create(d *Detection) error {
	if d.DetectedAt.IsZero() {
		d.DetectedAt = time.Now()
	}
	if d.Previous == "" {
		d.Previous = gesture.Unknown
	}

	result, err := r.db.Exec(
		`INSERT INTO detections (session_id, frame, shape, previous, hull_area, detected_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.SessionID, d.Frame, string(d.Shape), string(d.Previous), d.HullArea, d.DetectedAt,
	)
	if err != nil {
		return err
	}

	d.ID, err = result.LastInsertId()
	return err
}

// ListBySession retrieves the detections of a session in frame order.
func (r *DetectionRepository) ListBySession(sessionID string) ([]*Detection, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, frame, shape, previous, hull_area, detected_at
		 FROM detections WHERE session_id = ? ORDER BY frame, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var detections []*Detection
	for rows.Next() {
		d := &Detection{}
		var shape, previous string
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Frame, &shape, &previous, &d.HullArea, &d.DetectedAt); err != nil {
			return nil, err
		}
		d.Shape = gesture.Shape(shape)
		d.Previous = gesture.Shape(previous)
		detections = append(detections, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return detections, nil
}

// CountBySession returns how many detections a session has.
func (r *DetectionRepository) CountBySession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM detections WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
