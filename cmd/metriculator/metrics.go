package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/panbanda/metriculator/internal/output"
	"github.com/panbanda/metriculator/internal/service/analysis"
	scannerSvc "github.com/panbanda/metriculator/internal/service/scanner"
	"github.com/panbanda/metriculator/internal/watch"
	"github.com/panbanda/metriculator/pkg/config"
	"github.com/panbanda/metriculator/pkg/metrics"
	"github.com/urfave/cli/v2"
)

func metricsCmd() *cli.Command {
	return &cli.Command{
		Name:      "metrics",
		Aliases:   []string{"m"},
		Usage:     "Measure structure, complexity and linkage of C and C++ files",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Value: 20,
				Usage: "Show top N functions by complexity (0 for all)",
			},
			&cli.IntFlag{
				Name:  "cyclomatic",
				Usage: "Cyclomatic complexity threshold (default from config)",
			},
			&cli.IntFlag{
				Name:  "cognitive",
				Usage: "Cognitive complexity threshold (default from config)",
			},
			&cli.BoolFlag{
				Name:  "fail-on-violation",
				Usage: "Exit with an error when any violation has error severity",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Re-run whenever a C or C++ file under the first path changes",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "How long a changed file must stay unchanged before re-running",
			},
		},
		Action: runMetricsCmd,
	}
}

func runMetricsCmd(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	if n := c.Int("cyclomatic"); n > 0 {
		cfg.Thresholds.Cyclomatic = n
	}
	if n := c.Int("cognitive"); n > 0 {
		cfg.Thresholds.Cognitive = n
	}
	logger := newLogger(c, cfg)
	paths := getPaths(c)

	report, err := analyzeOnce(c, cfg, logger, paths)
	if err != nil {
		return err
	}
	if c.Bool("watch") {
		return watchMetrics(c, cfg, logger, paths)
	}

	if c.Bool("fail-on-violation") {
		errs := 0
		for _, v := range report.Violations {
			if v.Severity == metrics.SeverityError {
				errs++
			}
		}
		if errs > 0 {
			return cli.Exit(fmt.Sprintf("%d violations with error severity", errs), 2)
		}
	}
	return nil
}

// analyzeOnce scans paths, analyzes every file and writes the report.
func analyzeOnce(c *cli.Context, cfg *config.Config, logger *slog.Logger, paths []string) (*analysis.Report, error) {
	scan, err := scanFiles(cfg, paths)
	if err != nil {
		return nil, err
	}
	reportCache, err := newCache(c, cfg, scan.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	svc := analysis.New(
		analysis.WithConfig(cfg),
		analysis.WithCache(reportCache),
		analysis.WithLogger(logger),
	)

	tracker := newTracker(c, "Analyzing", len(scan.Files))
	report, err := svc.Analyze(c.Context, scan.Files, analysis.Options{OnProgress: tracker.Tick})
	if err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()

	cached := 0
	for _, f := range report.Files {
		if f.Cached {
			cached++
		}
	}
	logger.Debug("analysis complete", "files", len(report.Files), "cached", cached, "errors", len(report.Errors))

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return nil, err
	}
	defer formatter.Close()

	if err := formatter.Output(output.MetricsReport(report, c.Int("top"))); err != nil {
		return nil, err
	}
	return report, nil
}

// watchMetrics re-runs the analysis on every batch of changed files until
// the command is interrupted. Unchanged files are served from the cache;
// entries of removed files are dropped.
func watchMetrics(c *cli.Context, cfg *config.Config, logger *slog.Logger, paths []string) error {
	root := paths[0]
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		root = filepath.Dir(root)
	}
	repoRoot, _ := scannerSvc.FindRepoRoot(paths[0])

	w, err := watch.NewWatcher(root, cfg, c.Duration("debounce"))
	if err != nil {
		return err
	}
	defer w.Stop()
	w.SetLogger(logger)
	w.SetCallback(func(ctx context.Context, changed []string) {
		var removed []string
		for _, path := range changed {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				removed = append(removed, path)
				fmt.Fprintln(c.App.ErrWriter, color.YellowString("File removed: %s", rel))
				continue
			}
			fmt.Fprintln(c.App.ErrWriter, color.YellowString("File changed: %s", rel))
		}
		if err := forgetFiles(c, cfg, repoRoot, removed); err != nil {
			logger.Warn("cache invalidation failed", "error", err)
		}
		if _, err := analyzeOnce(c, cfg, logger, paths); err != nil {
			fmt.Fprintln(c.App.ErrWriter, color.RedString("Error: %v", err))
		}
	})

	fmt.Fprintln(c.App.ErrWriter, color.CyanString("Watching for changes in %s... (Ctrl+C to stop)", root))
	if err := w.Start(c.Context); err != nil && c.Context.Err() == nil {
		return err
	}
	return nil
}

// forgetFiles drops the cached reports of paths. Cache keys are absolute
// paths, as produced by the scanner.
func forgetFiles(c *cli.Context, cfg *config.Config, repoRoot string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	reportCache, err := newCache(c, cfg, repoRoot)
	if err != nil {
		return err
	}
	var errs []error
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, reportCache.Invalidate(abs))
	}
	return errors.Join(errs...)
}
