package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Profiles table - named HSV calibration ranges
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			h_min INTEGER NOT NULL CHECK(h_min BETWEEN 0 AND 255),
			h_max INTEGER NOT NULL CHECK(h_max BETWEEN 0 AND 255),
			s_min INTEGER NOT NULL CHECK(s_min BETWEEN 0 AND 255),
			s_max INTEGER NOT NULL CHECK(s_max BETWEEN 0 AND 255),
			v_min INTEGER NOT NULL CHECK(v_min BETWEEN 0 AND 255),
			v_max INTEGER NOT NULL CHECK(v_max BETWEEN 0 AND 255),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sessions table - one row per pipeline run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0,
			no_region_frames INTEGER NOT NULL DEFAULT 0,
			mean_area REAL NOT NULL DEFAULT 0,
			std_area REAL NOT NULL DEFAULT 0,
			shape_counts TEXT NOT NULL DEFAULT '{}'
		)`,

		// Detections table - stable shape changes observed during a session
		`CREATE TABLE IF NOT EXISTS detections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			frame INTEGER NOT NULL,
			shape TEXT NOT NULL,
			previous TEXT NOT NULL DEFAULT 'unknown',
			hull_area REAL NOT NULL,
			detected_at DATETIME NOT NULL
		)`,

		// Actions table - plugin actions to execute when a shape is detected
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			shape TEXT NOT NULL CHECK(shape IN ('five_fingers', 'two_fingers', 'closed_fist')),
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_detections_session_id ON detections(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_shape ON actions(shape)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
