package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/gesturehull/internal/detector"
)

// Profile is a named HSV calibration range.
type Profile struct {
	ID        string
	Name      string
	Range     detector.HSVRange
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileRepository provides CRUD operations for calibration profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

const profileColumns = `id, name, h_min, h_max, s_min, s_max, v_min, v_max, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	r := &p.Range
	err := row.Scan(&p.ID, &p.Name, &r.HMin, &r.HMax, &r.SMin, &r.SMax, &r.VMin, &r.VMax,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new profile into the database.
func (r *ProfileRepository) Create(p *Profile) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	rng := p.Range
	_, err := r.db.Exec(
		`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, rng.HMin, rng.HMax, rng.SMin, rng.SMax, rng.VMin, rng.VMax, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	return r.getOne(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
}

// GetByName retrieves a profile by its unique name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	return r.getOne(`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name)
}

func (r *ProfileRepository) getOne(query string, arg any) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List retrieves all profiles ordered by name.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update updates the name and range of an existing profile.
func (r *ProfileRepository) Update(p *Profile) error {
	p.UpdatedAt = time.Now()

	rng := p.Range
	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, h_min = ?, h_max = ?, s_min = ?, s_max = ?, v_min = ?, v_max = ?,
		 updated_at = ? WHERE id = ?`,
		p.Name, rng.HMin, rng.HMax, rng.SMin, rng.SMax, rng.VMin, rng.VMax, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a profile by its ID.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
