// Package main provides a plugin that runs a configured command when a hand
// shape is detected. The shape is passed in the GESTUREHULL_* environment
// variables.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
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
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// CommandConfig is the per-action configuration stored with the binding.
type CommandConfig struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
	Dir     string   `json:"dir"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Action != "run" {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	out, err := runCommand(req)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	data, _ := json.Marshal(map[string]string{"output": out})
	writeSuccessResponse(data)
}

func runCommand(req Request) (string, error) {
	var cfg CommandConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return "", fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if cfg.Command == "" {
		return "", fmt.Errorf("command is required")
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Env = append(os.Environ(),
		"GESTUREHULL_SHAPE="+req.Shape,
		"GESTUREHULL_LABEL="+req.Label,
		"GESTUREHULL_HULL_AREA="+strconv.FormatFloat(req.HullArea, 'f', 0, 64),
		"GESTUREHULL_FRAME="+strconv.FormatInt(req.Frame, 10),
	)

	// Plugin stdout carries the response, so command output is captured.
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return out.String(), nil
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse(data json.RawMessage) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}
