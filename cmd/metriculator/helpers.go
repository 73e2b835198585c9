package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/panbanda/metriculator/internal/cache"
	"github.com/panbanda/metriculator/internal/output"
	"github.com/panbanda/metriculator/internal/progress"
	scannerSvc "github.com/panbanda/metriculator/internal/service/scanner"
	"github.com/panbanda/metriculator/pkg/config"
	"github.com/urfave/cli/v2"
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// loadConfig loads --config, or the first config file found in the standard
// locations, over the defaults.
func loadConfig(c *cli.Context) (*config.Config, string, error) {
	path := c.String("config")
	if path == "" {
		path = config.Find()
	}
	if path == "" {
		return config.DefaultConfig(), "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("load config: %w", err)
	}
	return cfg, path, nil
}

func newLogger(c *cli.Context, cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	if c.Bool("verbose") || cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

// newFormatter writes to --output when set and to the app writer otherwise.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := c.String("format")
	if format == "" {
		format = cfg.Output.Format
	}
	colored := cfg.Output.Color && !color.NoColor
	if path := c.String("output"); path != "" {
		return output.NewFormatter(output.ParseFormat(format), path, colored)
	}
	return output.NewWriterFormatter(output.ParseFormat(format), c.App.Writer, colored), nil
}

// newCache opens the report cache. A relative cache dir is resolved against
// the repository root when there is one.
func newCache(c *cli.Context, cfg *config.Config, repoRoot string) (*cache.Cache, error) {
	dir := cfg.Cache.Dir
	if !filepath.IsAbs(dir) && repoRoot != "" {
		dir = filepath.Join(repoRoot, dir)
	}
	return cache.New(dir, cfg.Cache.TTL, cfg.Fingerprint(), cfg.Cache.Enabled && !c.Bool("no-cache"))
}

func scanFiles(cfg *config.Config, paths []string) (*scannerSvc.ScanResult, error) {
	result, err := scannerSvc.New(scannerSvc.WithConfig(cfg)).ScanPaths(paths)
	if err != nil {
		return nil, err
	}
	if len(result.Files) == 0 {
		return nil, fmt.Errorf("no C or C++ files found in %v", paths)
	}
	return result, nil
}

// newTracker shows a progress bar only when stderr is a terminal.
func newTracker(c *cli.Context, label string, total int) *progress.Tracker {
	f, ok := c.App.ErrWriter.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return nil
	}
	return progress.NewTracker(label, total, progress.WithWriter(f))
}
