package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ayusman/gesturehull/internal/gesture"
)

// Action binds a hand shape to a plugin action.
type Action struct {
	ID         string
	Shape      gesture.Shape
	PluginName string
	ActionName string
	Config     json.RawMessage
	Enabled    bool
	CreatedAt  time.Time
}

// ActionRepository provides CRUD operations for actions.
type ActionRepository struct {
	db *sql.DB
}

// Actions returns the action repository for this store.
func (s *Store) Actions() *ActionRepository {
	return &ActionRepository{db: s.db}
}

const actionColumns = `id, shape, plugin_name, action_name, config, enabled, created_at`

func scanAction(row rowScanner) (*Action, error) {
	a := &Action{}
	var shape, config string
	var enabled int

	if err := row.Scan(&a.ID, &shape, &a.PluginName, &a.ActionName, &config, &enabled, &a.CreatedAt); err != nil {
		return nil, err
	}

	a.Shape = gesture.Shape(shape)
	a.Config = json.RawMessage(config)
	a.Enabled = enabled != 0
	return a, nil
}

func actionConfig(a *Action) string {
	if len(a.Config) == 0 {
		return "{}"
	}
	return string(a.Config)
}

// Create inserts a new action into the database.
func (r *ActionRepository) Create(a *Action) error {
	a.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO actions (`+actionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Shape), a.PluginName, a.ActionName, actionConfig(a), a.Enabled, a.CreatedAt,
	)
	return err
}

// GetByID retrieves an action by its ID.
func (r *ActionRepository) GetByID(id string) (*Action, error) {
	a, err := scanAction(r.db.QueryRow(`SELECT `+actionColumns+` FROM actions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List retrieves all actions from the database.
func (r *ActionRepository) List() ([]*Action, error) {
	return r.query(`SELECT ` + actionColumns + ` FROM actions ORDER BY created_at DESC`)
}

// ListByShape retrieves every action bound to shape, enabled or not.
func (r *ActionRepository) ListByShape(shape gesture.Shape) ([]*Action, error) {
	return r.query(`SELECT `+actionColumns+` FROM actions WHERE shape = ? ORDER BY created_at DESC`,
		string(shape))
}

// ListEnabledByShape retrieves the enabled actions bound to shape.
// An empty result means nothing is bound.
func (r *ActionRepository) ListEnabledByShape(shape gesture.Shape) ([]*Action, error) {
	return r.query(`SELECT `+actionColumns+` FROM actions WHERE shape = ? AND enabled = 1 ORDER BY created_at`,
		string(shape))
}

func (r *ActionRepository) query(q string, args ...any) ([]*Action, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return actions, nil
}

// Update updates an existing action in the database.
func (r *ActionRepository) Update(a *Action) error {
	enabled := 0
	if a.Enabled {
		enabled = 1
	}

	result, err := r.db.Exec(
		`UPDATE actions SET shape = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		string(a.Shape), a.PluginName, a.ActionName, actionConfig(a), enabled, a.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes an action from the database by its ID.
func (r *ActionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM actions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
