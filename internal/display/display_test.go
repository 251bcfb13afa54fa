package display

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/gesturehull/internal/testutil"
)

func TestKeyAction(t *testing.T) {
	tests := []struct {
		key  int
		want Action
	}{
		{-1, ActionNone},
		{27, ActionQuit},
		{27 | 0x100000, ActionQuit},
		{'s', ActionSnapshot},
		{'S', ActionSnapshot},
		{'q', ActionNone},
		{' ', ActionNone},
	}

	for _, tt := range tests {
		if got := KeyAction(tt.key); got != tt.want {
			t.Errorf("KeyAction(%d) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestSnapshotPath(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 123000000, time.UTC)
	got := SnapshotPath("/tmp/snaps", ts)
	want := filepath.Join("/tmp/snaps", "snapshot-20240301-123045.123.png")
	if got != want {
		t.Errorf("SnapshotPath() = %q, want %q", got, want)
	}
}

func TestSaveSnapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snaps")

	img := testutil.GloveRectFrame(testutil.ClosedFistRect)
	defer img.Close()

	path, err := SaveSnapshot(dir, img, time.Now())
	if err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("path %q not inside %q", path, dir)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot not written: %v", err)
	}
}

func TestSaveSnapshot_Empty(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()

	if _, err := SaveSnapshot(t.TempDir(), img, time.Now()); err == nil {
		t.Error("SaveSnapshot(empty) should fail")
	}
}
