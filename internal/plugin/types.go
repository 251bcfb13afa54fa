// Package plugin discovers external action plugins and runs them when a hand
// shape is detected.
package plugin

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Validate checks the fields required to run the plugin.
func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest: name is required")
	}
	if m.Executable == "" {
		return fmt.Errorf("manifest %s: executable is required", m.Name)
	}
	return nil
}

// HasAction reports whether the manifest declares action. A manifest with no
// declared actions accepts any.
func (m Manifest) HasAction(action string) bool {
	return len(m.Actions) == 0 || slices.Contains(m.Actions, action)
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Action   string          `json:"action"`
	Shape    string          `json:"shape"`
	Label    string          `json:"label,omitempty"`
	HullArea float64         `json:"hull_area"`
	Frame    int64           `json:"frame"`
	Config   json.RawMessage `json:"config,omitempty"`
	Params   json.RawMessage `json:"params,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
