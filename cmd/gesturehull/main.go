// Command gesturehull classifies a gloved hand in live video as five fingers,
// two fingers or a closed fist from the area of its convex hull.
//
// Usage:
//
//	gesturehull [flags]
//
// Flags:
//
//	-config     JSON config file
//	-source     Camera index, video file or stream URL (default: 0)
//	-calibrate  Open the HSV trackbar window
//	-headless   Run without display windows
//	-tray       Run headless with a system tray menu
//	-listen     HTTP listen address, empty to disable (default: :8080)
//	-db         SQLite database path (default: ~/.gesturehull/gesturehull.db)
//	-log-level  debug, info, warn or error (default: info)
//	-report     Directory for the session plot and summary written on exit
//	-plugins    Plugin directory (default: ~/.gesturehull/plugins)
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/gesturehull/internal/app"
	"github.com/ayusman/gesturehull/internal/calibrate"
	"github.com/ayusman/gesturehull/internal/capture"
	"github.com/ayusman/gesturehull/internal/config"
	"github.com/ayusman/gesturehull/internal/detector"
	"github.com/ayusman/gesturehull/internal/display"
	"github.com/ayusman/gesturehull/internal/gesture"
	"github.com/ayusman/gesturehull/internal/log"
	"github.com/ayusman/gesturehull/internal/plugin"
	"github.com/ayusman/gesturehull/internal/report"
	"github.com/ayusman/gesturehull/internal/server"
	"github.com/ayusman/gesturehull/internal/store"
	"github.com/ayusman/gesturehull/internal/tray"
)

// HighGUI windows and the system tray must live on the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Error("gesturehull failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	log.Init(cfg.LogLevel)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		log.Warn("plugin discovery failed", "dir", cfg.PluginDir, "error", err)
	}
	dispatcher := plugin.NewDispatcher(st.Actions(), plugins, plugin.NewExecutor(cfg.GetPluginTimeout()))

	det := detector.NewHSVDetector(detector.Config{BlurSize: cfg.BlurSize})
	defer det.Close()

	src := capture.NewCamera(cfg.Source, capture.Options{Width: cfg.Width, Height: cfg.Height, FPS: cfg.FPS})
	tuning := calibrate.NewTuning(cfg.HSV)
	recorder := report.NewRecorder(app.DefaultRecorderLimit)

	appCfg := app.Config{
		Source:       src,
		SourceName:   cfg.Source,
		Detector:     det,
		Thresholds:   cfg.Thresholds,
		StableFrames: cfg.StableFrames,
		Ranges:       tuning,
		SnapshotDir:  cfg.SnapshotDir,
		Store:        st,
		Recorder:     recorder,
		Dispatcher:   dispatcher,
	}

	if cfg.Calibrate {
		cal := calibrate.NewWindow(cfg.HSV)
		defer cal.Close()
		cal.Follow(tuning)
		appCfg.Ranges = cal
		appCfg.ShowArea = true
	}

	var view *display.Display
	if !cfg.Headless && !cfg.Tray {
		view = display.New()
		defer view.Close()
		appCfg.View = view
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if srv := newServer(cfg, a, st, tuning, plugins); srv != nil {
		go func() {
			if err := srv.Run(ctx, cfg.Listen); err != nil {
				log.Error("http server failed", "error", err)
			}
		}()
	}

	if cfg.Tray {
		err = runTray(ctx, stop, a, cfg.Listen)
	} else {
		err = a.Run(ctx)
	}

	writeReport(cfg.ReportDir, a, cfg.Thresholds)
	return err
}

// newServer builds the HTTP server and hooks the frame hub and events
// handler into a. It returns nil, leaving a untouched, when cfg.Listen is empty.
func newServer(cfg *config.Config, a *app.App, st *store.Store, tuning *calibrate.Tuning,
	plugins *plugin.Manager) *server.Server {
	if cfg.Listen == "" {
		return nil
	}

	frames := server.NewFrameHub()
	events := server.NewEventsHandler()
	a.OnFrame(func(res *app.Result) {
		if err := frames.Publish(res.Annotated); err != nil {
			log.Debug("frame publish failed", "error", err)
		}
	})
	a.OnEvent(events.Broadcast)

	return server.New(server.Config{
		StaticDir:  findWebDir(),
		Store:      st,
		Frames:     frames,
		Events:     events,
		Ranges:     tuning,
		Thresholds: cfg.Thresholds,
		Plugins:    plugins,
	})
}

// runTray hands the main thread to the tray and runs the frame loop behind it.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, listen string) error {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnQuit(stop)
	t.OnOpen(func() {
		if listen == "" {
			log.Warn("http server disabled, no stream to open")
			return
		}
		openBrowser(streamURL(listen))
	})
	a.OnEvent(func(ev gesture.Event) { t.SetLastShape(ev.Shape) })

	errCh := make(chan error, 1)
	t.OnReady(func() {
		go func() {
			errCh <- a.Run(ctx)
			t.Quit()
		}()
	})
	t.Run()

	// Quit from the menu cancels ctx; wait for the loop to close the source.
	stop()
	return <-errCh
}

// loadConfig parses args, loads the -config file and resolves data paths.
func loadConfig(args []string) (*config.Config, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	cfg, err := parseConfig(args)
	if err != nil {
		return nil, err
	}
	cfg.ResolvePaths(dataDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseConfig builds the configuration from args. Values come from the
// defaults, then the -config file, then flags given on the command line.
func parseConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("gesturehull", flag.ContinueOnError)
	configPath := fs.String("config", "", "JSON config file")
	source := fs.String("source", config.DefaultSource, "Camera index, video file or stream URL")
	calibrateFlag := fs.Bool("calibrate", false, "Open the HSV trackbar window")
	headless := fs.Bool("headless", false, "Run without display windows")
	trayFlag := fs.Bool("tray", false, "Run headless with a system tray menu")
	listen := fs.String("listen", config.DefaultListen, "HTTP listen address, empty to disable")
	dbPath := fs.String("db", "", "SQLite database path")
	logLevel := fs.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	reportDir := fs.String("report", "", "Directory for the session plot and summary written on exit")
	pluginDir := fs.String("plugins", "", "Plugin directory")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *source
		case "calibrate":
			cfg.Calibrate = *calibrateFlag
		case "headless":
			cfg.Headless = *headless
		case "tray":
			cfg.Tray = *trayFlag
		case "listen":
			cfg.Listen = *listen
		case "db":
			cfg.DBPath = *dbPath
		case "log-level":
			cfg.LogLevel = *logLevel
		case "report":
			cfg.ReportDir = *reportDir
		case "plugins":
			cfg.PluginDir = *pluginDir
		}
	})
	return cfg, nil
}

// writeReport saves the run's area plot and summary under dir.
func writeReport(dir string, a *app.App, thresholds gesture.ThresholdTable) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warn("failed to create report directory", "dir", dir, "error", err)
		return
	}

	name := a.SessionID()
	if name == "" {
		name = time.Now().Format("20060102-150405")
	}

	plotPath := filepath.Join(dir, "session-"+name+".png")
	if err := a.Recorder().WritePlot(plotPath, thresholds); err != nil {
		if errors.Is(err, report.ErrNoSamples) {
			log.Info("no frames with a region, skipping plot")
		} else {
			log.Warn("failed to write plot", "path", plotPath, "error", err)
		}
	} else {
		log.Info("plot written", "path", plotPath)
	}

	summaryPath := filepath.Join(dir, "session-"+name+".json")
	data, err := json.MarshalIndent(a.Recorder().Summary(), "", "  ")
	if err == nil {
		err = os.WriteFile(summaryPath, data, 0644)
	}
	if err != nil {
		log.Warn("failed to write summary", "path", summaryPath, "error", err)
		return
	}
	log.Info("summary written", "path", summaryPath)
}

func streamURL(listen string) string {
	host := listen
	if len(host) > 0 && host[0] == ':' {
		host = "localhost" + host
	}
	return "http://" + host + "/api/stream"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("failed to open browser", "url", url, "error", err)
	}
}

// findWebDir returns the first existing web directory among "web", "../web"
// and ~/.gesturehull/web, or "" when there is none.
func findWebDir() string {
	for _, p := range []string{"web", "../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}
