package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ayusman/gesturehull/internal/gesture"
)

// Session summarises one pipeline run.
type Session struct {
	ID             string
	Source         string
	StartedAt      time.Time
	EndedAt        *time.Time
	Frames         int
	NoRegionFrames int
	MeanArea       float64
	StdArea        float64
	ShapeCounts    map[gesture.Shape]int
}

// SessionStats are the totals written when a session ends.
type SessionStats struct {
	Frames         int
	NoRegionFrames int
	MeanArea       float64
	StdArea        float64
	ShapeCounts    map[gesture.Shape]int
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, source, started_at, ended_at, frames, no_region_frames, mean_area, std_area, shape_counts`

func scanSession(row rowScanner) (*Session, error) {
	s := &Session{}
	var ended sql.NullTime
	var counts string

	err := row.Scan(&s.ID, &s.Source, &s.StartedAt, &ended, &s.Frames, &s.NoRegionFrames,
		&s.MeanArea, &s.StdArea, &counts)
	if err != nil {
		return nil, err
	}

	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	if err := json.Unmarshal([]byte(counts), &s.ShapeCounts); err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new, open session. StartedAt defaults to now.
func (r *SessionRepository) Create(s *Session) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	if s.ShapeCounts == nil {
		s.ShapeCounts = map[gesture.Shape]int{}
	}

	counts, err := json.Marshal(s.ShapeCounts)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO sessions (id, source, started_at, frames, no_region_frames, mean_area, std_area, shape_counts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Source, s.StartedAt, s.Frames, s.NoRegionFrames, s.MeanArea, s.StdArea, string(counts),
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	s, err := scanSession(r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// List retrieves sessions, newest first. A limit <= 0 returns all sessions.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Finish closes a session and records its totals.
func (r *SessionRepository) Finish(id string, endedAt time.Time, stats SessionStats) error {
	counts := stats.ShapeCounts
	if counts == nil {
		counts = map[gesture.Shape]int{}
	}
	data, err := json.Marshal(counts)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?, no_region_frames = ?, mean_area = ?, std_area = ?,
		 shape_counts = ? WHERE id = ?`,
		endedAt, stats.Frames, stats.NoRegionFrames, stats.MeanArea, stats.StdArea, string(data), id,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a session and, by cascade, its detections.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
