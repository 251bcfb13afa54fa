// Package display shows the raw and annotated frames in desktop windows and
// turns key presses into loop actions.
package display

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"
)

// Window titles.
const (
	InputWindow  = "Input"
	OutputWindow = "Gesture Detection"
)

// PollDelay is the key wait per frame, in milliseconds.
const PollDelay = 10

// KeyEscape is the key code that ends the run.
const KeyEscape = 27

// Action is what the frame loop should do after a poll.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionSnapshot
)

func (a Action) String() string {
	switch a {
	case ActionQuit:
		return "quit"
	case ActionSnapshot:
		return "snapshot"
	default:
		return "none"
	}
}

// KeyAction maps a WaitKey result to an Action.
func KeyAction(key int) Action {
	if key < 0 {
		return ActionNone
	}
	switch key & 0xFF {
	case KeyEscape:
		return ActionQuit
	case 's', 'S':
		return ActionSnapshot
	default:
		return ActionNone
	}
}

// Display owns the input and output windows.
type Display struct {
	input  *gocv.Window
	output *gocv.Window
}

// New opens both windows.
func New() *Display {
	return &Display{
		input:  gocv.NewWindow(InputWindow),
		output: gocv.NewWindow(OutputWindow),
	}
}

// Show draws the raw frame and the annotated output.
func (d *Display) Show(input, output gocv.Mat) {
	if !input.Empty() {
		d.input.IMShow(input)
	}
	if !output.Empty() {
		d.output.IMShow(output)
	}
}

// Poll waits PollDelay ms for a key press.
func (d *Display) Poll() Action {
	return KeyAction(d.output.WaitKey(PollDelay))
}

// Close closes both windows.
func (d *Display) Close() error {
	errIn := d.input.Close()
	errOut := d.output.Close()
	if errIn != nil {
		return errIn
	}
	return errOut
}

// SnapshotPath returns a timestamped PNG path inside dir.
func SnapshotPath(dir string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("snapshot-%s.png", t.Format("20060102-150405.000")))
}

// SaveSnapshot writes img as a PNG into dir and returns the file path.
func SaveSnapshot(dir string, img gocv.Mat, t time.Time) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("snapshot: empty image")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}

	path := SnapshotPath(dir, t)
	if !gocv.IMWrite(path, img) {
		return "", fmt.Errorf("snapshot: failed to write %s", path)
	}
	return path, nil
}
