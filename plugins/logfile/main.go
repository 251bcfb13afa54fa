// Package main provides a plugin that appends every detected hand shape to a
// JSON lines file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action   string          `json:"action"`
	Shape    string          `json:"shape"`
	Label    string          `json:"label"`
	HullArea float64         `json:"hull_area"`
	Frame    int64           `json:"frame"`
	Config   json.RawMessage `json:"config"`
	Params   json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Entry is one line of the output file.
type Entry struct {
	Shape    string          `json:"shape"`
	Label    string          `json:"label"`
	HullArea float64         `json:"hull_area"`
	Frame    int64           `json:"frame"`
	Params   json.RawMessage `json:"params,omitempty"`
	Written  time.Time       `json:"written_at"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	if req.Action != "append" {
		writeResponse(fmt.Errorf("unknown action: %s", req.Action))
		return
	}
	writeResponse(appendEntry(req))
}

func appendEntry(req Request) error {
	var cfg struct {
		Path string `json:"path"`
	}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.Path == "" {
		return fmt.Errorf("path is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(Entry{
		Shape:    req.Shape,
		Label:    req.Label,
		HullArea: req.HullArea,
		Frame:    req.Frame,
		Params:   req.Params,
		Written:  time.Now(),
	})
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
