// Package tray provides the system tray menu used in headless mode.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/gesturehull/internal/gesture"
)

// Menu titles.
const (
	Title         = "gesturehull"
	EnabledTitle  = "● Enabled"
	DisabledTitle = "○ Disabled"
	NoShapeTitle  = "Last: none"
)

// Tray is the system tray menu: a detection toggle, the last stable shape,
// an entry to open the output stream and Quit.
type Tray struct {
	onReady  func()
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	last     gesture.Shape
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuLastShape *systray.MenuItem
}

// New creates a new Tray with detection enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		last:    gesture.Unknown,
	}
}

// OnReady sets the function called once the tray is up. The frame loop is
// started from here because systray owns the main thread.
func (t *Tray) OnReady(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReady = fn
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback for the "Open stream" item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.ready, t.exit)
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) ready() {
	systray.SetTitle(Title)
	systray.SetTooltip("gesturehull hand shape detection")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle hand shape detection")
	systray.AddSeparator()

	t.menuLastShape = systray.AddMenuItem(lastShapeTitle(t.last), "Last detected hand shape")
	t.menuLastShape.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuOpen := systray.AddMenuItem("Open stream...", "Open the annotated stream in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit gesturehull")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.Toggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()

	t.mu.RLock()
	callback := t.onReady
	t.mu.RUnlock()
	if callback != nil {
		callback()
	}
}

func (t *Tray) exit() {}

// Toggle flips the enabled state, updates the menu and notifies OnToggle.
func (t *Tray) Toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastShape updates the last shape shown in the menu.
func (t *Tray) SetLastShape(shape gesture.Shape) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = shape
	if t.menuLastShape != nil {
		t.menuLastShape.SetTitle(lastShapeTitle(shape))
	}
}

// LastShape returns the shape last passed to SetLastShape.
func (t *Tray) LastShape() gesture.Shape {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return EnabledTitle
	}
	return DisabledTitle
}

func lastShapeTitle(shape gesture.Shape) string {
	label := shape.Label()
	if label == "" {
		return NoShapeTitle
	}
	return "Last: " + label
}
