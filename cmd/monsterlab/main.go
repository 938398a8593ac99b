// Package main is the entry point for Monster Lab.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dshills/monsterlab/internal/canvas"
	"github.com/dshills/monsterlab/internal/config"
	"github.com/dshills/monsterlab/internal/incubator"
	"github.com/dshills/monsterlab/internal/inventory"
	"github.com/dshills/monsterlab/internal/logging"
	"github.com/dshills/monsterlab/internal/report"
	"github.com/dshills/monsterlab/internal/studio"
	"github.com/dshills/monsterlab/internal/tui"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	assetsDir  string
	exportDir  string
	logLevel   string
	logFile    string
	offline    bool
	metrics    string
	dumpConfig bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.dumpConfig {
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		os.Stdout.Write(data)
		return 0
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: logging.Format(cfg.Logging.Format),
		File:   cfg.Logging.File,
		Output: io.Discard,
		Name:   "monsterlab",
	}
	logger, closeLog, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runStudio(ctx, cfg, logger); err != nil && !errors.Is(err, tui.ErrQuit) && !errors.Is(err, context.Canceled) {
		logger.Error("monsterlab stopped", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runStudio(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		srv := serveMetrics(cfg.Metrics.Addr, registry, logging.Component(logger, "metrics"))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	inv, err := loadInventory(cfg.Assets.Dir, logging.Component(logger, "inventory"))
	if err != nil {
		return err
	}

	var dict incubator.Dictionary
	if !cfg.Dictionary.Offline {
		dict = incubator.NewHTTPDictionary(cfg.Dictionary.Endpoint, cfg.Dictionary.Timeout.Std())
	}

	sess, err := studio.New(studio.Options{
		Canvas: canvas.Config{
			Width:      cfg.Canvas.Width,
			Height:     cfg.Canvas.Height,
			Background: cfg.Canvas.Background,
			Brush:      canvas.Brush{Color: cfg.Brush.Color, Width: float64(cfg.Brush.Width)},
		},
		MaxEntries: cfg.History.MaxEntries,
		Inventory:  inv,
		Incubator:  incubator.New(dict, incubator.WithLogger(logging.Component(logger, "incubator"))),
		Exporter: report.NewExporter(cfg.Export.Dir,
			report.WithFileName(cfg.Export.FileName),
			report.WithLogger(logging.Component(logger, "report"))),
		Logger:    logger,
		Registry:  registry,
		Namespace: cfg.Metrics.Namespace,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	if cfg.Assets.Watch {
		w, err := inventory.NewWatcher(inv, cfg.Assets.Dir,
			inventory.WithDebounce(cfg.Assets.Debounce.Std()),
			inventory.WithWatcherLogger(logging.Component(logger, "watcher")),
			inventory.OnReload(func(err error) { sess.InventoryReloaded(ctx, err) }),
		)
		if err != nil {
			logger.Warn("asset watching disabled", zap.Error(err))
		} else {
			defer w.Close()
			go w.Run(ctx)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	ui, err := tui.New(screen, sess, tui.WithLogger(logging.Component(logger, "tui")))
	if err != nil {
		return err
	}
	logger.Info("monsterlab started", zap.String("version", version), zap.String("assets", cfg.Assets.Dir))
	return ui.Run(ctx)
}

// loadInventory reads the asset directory, creating it when missing so the
// watcher has something to watch.
func loadInventory(dir string, logger *zap.Logger) (*inventory.Inventory, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("asset dir: %w", err)
	}
	return inventory.Load(dir, inventory.WithLogger(logger))
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.assetsDir != "" {
		cfg.Assets.Dir = opts.assetsDir
	}
	if opts.exportDir != "" {
		cfg.Export.Dir = opts.exportDir
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFile != "" {
		cfg.Logging.File = opts.logFile
	}
	if opts.offline {
		cfg.Dictionary.Offline = true
	}
	if opts.metrics != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = opts.metrics
	}
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", config.DefaultFile, "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", config.DefaultFile, "Path to configuration file (shorthand)")
	flag.StringVar(&opts.assetsDir, "assets", "", "Parts directory (overrides assets.dir)")
	flag.StringVar(&opts.exportDir, "export", "", "Screenshot directory (overrides export.dir)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.logFile, "log-file", "", "Write logs to this file")
	flag.BoolVar(&opts.offline, "offline", false, "Skip the dictionary check")
	flag.StringVar(&opts.metrics, "metrics", "", "Serve Prometheus metrics on this address")
	flag.BoolVar(&opts.dumpConfig, "dump-config", false, "Print the effective configuration and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Monster Lab - build a monster, name its -ness\n\n")
		fmt.Fprintf(os.Stderr, "Usage: monsterlab [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  %sSECTION_KEY overrides a setting, e.g. %sHISTORY_MAX_ENTRIES=50\n", config.EnvPrefix, config.EnvPrefix)
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Monster Lab %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	return opts
}
