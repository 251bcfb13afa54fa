package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/gesturehull/internal/app"
	"github.com/ayusman/gesturehull/internal/calibrate"
	"github.com/ayusman/gesturehull/internal/capture"
	"github.com/ayusman/gesturehull/internal/config"
	"github.com/ayusman/gesturehull/internal/detector"
	"github.com/ayusman/gesturehull/internal/plugin"
	"github.com/ayusman/gesturehull/internal/store"
	"github.com/ayusman/gesturehull/internal/testutil"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gesturehull.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseConfig_FlagsOverrideFile(t *testing.T) {
	file := writeConfigFile(t, `{
		"source": "clip.mp4",
		"listen": ":9090",
		"calibrate": true,
		"log_level": "debug",
		"plugin_dir": "/srv/plugins",
		"report_dir": "/tmp/reports"
	}`)

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "defaults without a file",
			args: nil,
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Source != config.DefaultSource || cfg.Listen != config.DefaultListen || cfg.Calibrate {
					t.Errorf("cfg = %+v, want defaults", cfg)
				}
			},
		},
		{
			name: "file values survive without flags",
			args: []string{"-config", file},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Source != "clip.mp4" || cfg.Listen != ":9090" || !cfg.Calibrate || cfg.LogLevel != "debug" {
					t.Errorf("cfg = %+v, want the file values", cfg)
				}
			},
		},
		{
			name: "flags win over the file",
			args: []string{"-config", file, "-source", "1", "-log-level", "warn", "-plugins", "./plugins"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Source != "1" || cfg.LogLevel != "warn" || cfg.PluginDir != "./plugins" {
					t.Errorf("cfg = %+v, want the flag values", cfg)
				}
				if cfg.Listen != ":9090" || cfg.ReportDir != "/tmp/reports" {
					t.Errorf("unset flags replaced file values: listen %q, report %q", cfg.Listen, cfg.ReportDir)
				}
			},
		},
		{
			name: "flag set to its default still wins",
			args: []string{"-config", file, "-listen", config.DefaultListen, "-calibrate=false"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Listen != config.DefaultListen || cfg.Calibrate {
					t.Errorf("listen = %q, calibrate = %v; want the flag values", cfg.Listen, cfg.Calibrate)
				}
			},
		},
		{
			name: "empty listen disables the server",
			args: []string{"-config", file, "-listen", "", "-calibrate=false", "-headless"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Listen != "" || !cfg.Headless {
					t.Errorf("listen = %q, headless = %v", cfg.Listen, cfg.Headless)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseConfig(tt.args)
			if err != nil {
				t.Fatalf("parseConfig(%v) error = %v", tt.args, err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"-bogus"}},
		{name: "missing file", args: []string{"-config", filepath.Join(t.TempDir(), "missing.json")}},
		{name: "wrong extension", args: []string{"-config", "settings.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseConfig(tt.args); err == nil {
				t.Errorf("parseConfig(%v) should fail", tt.args)
			}
		})
	}
}

func TestLoadConfig_ResolvesPathsAndValidates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig([]string{"-headless"})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	dataDir, err := config.DataDir()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != filepath.Join(dataDir, "gesturehull.db") || cfg.PluginDir != filepath.Join(dataDir, "plugins") {
		t.Errorf("paths = %q, %q; want under %s", cfg.DBPath, cfg.PluginDir, dataDir)
	}

	if _, err := loadConfig([]string{"-calibrate", "-headless"}); err == nil {
		t.Error("calibrate with headless should fail validation")
	}
}

func TestNewServer(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	frames := testutil.Sequence(testutil.TwoFingersRect, testutil.TwoFingersRect)
	defer testutil.CloseAll(frames)

	newApp := func() *app.App {
		d := detector.NewMockDetector()
		d.SetRegion(detector.TwoFingersRegion())
		a, err := app.New(app.Config{Source: capture.NewMockSource(frames, false), Detector: d})
		if err != nil {
			t.Fatalf("app.New() error = %v", err)
		}
		return a
	}
	tuning := calibrate.NewTuning(detector.DefaultRange())
	plugins := plugin.NewManager(t.TempDir())

	t.Run("disabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.Listen = ""
		if srv := newServer(cfg, newApp(), st, tuning, plugins); srv != nil {
			t.Error("newServer() with an empty listen address should return nil")
		}
	})

	t.Run("publishes frames", func(t *testing.T) {
		cfg := config.Default()
		a := newApp()
		srv := newServer(cfg, a, st, tuning, plugins)
		if srv == nil {
			t.Fatal("newServer() = nil")
		}
		if err := a.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx))
		if !strings.Contains(rec.Body.String(), "--frame") {
			t.Error("stream has no frame after the run")
		}
	})
}
