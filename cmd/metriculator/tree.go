package main

import (
	"path/filepath"

	"github.com/panbanda/metriculator/internal/output"
	"github.com/panbanda/metriculator/internal/service/analysis"
	"github.com/urfave/cli/v2"
)

func treeCmd() *cli.Command {
	return &cli.Command{
		Name:      "tree",
		Aliases:   []string{"t"},
		Usage:     "Print the scope tree of C and C++ files",
		ArgsUsage: "[path...]",
		Description: `Builds one scope tree per file, or with --workspace a single tree holding
every file under a workspace root. Re-opened namespaces and classes are
merged unless --builder append is given.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "workspace",
				Aliases: []string{"w"},
				Usage:   "Build one tree for all files",
			},
			&cli.BoolFlag{
				Name:  "undefined",
				Usage: "Mark function declarations that have no definition",
			},
			&cli.StringFlag{
				Name:  "builder",
				Usage: "Tree builder: structural or append (default from config)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Workspace root name (default: base name of the first path)",
			},
		},
		Action: runTreeCmd,
	}
}

func runTreeCmd(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	if b := c.String("builder"); b != "" {
		cfg.Analysis.Builder = b
	}
	logger := newLogger(c, cfg)

	paths := getPaths(c)
	scan, err := scanFiles(cfg, paths)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(logger))

	if c.Bool("workspace") || cfg.Analysis.Workspace {
		name := c.String("name")
		if name == "" {
			abs, err := filepath.Abs(paths[0])
			if err != nil {
				return err
			}
			name = filepath.Base(abs)
		}

		tracker := newTracker(c, "Parsing", len(scan.Files))
		ws, err := svc.BuildWorkspace(c.Context, name, scan.Files, analysis.Options{OnProgress: tracker.Tick})
		if err != nil {
			tracker.FinishError(err)
			return err
		}
		tracker.FinishSuccess()
		for _, e := range ws.Errors {
			logger.Warn("file skipped", "path", e.Path, "error", e.Error)
		}

		view := &output.TreeView{Tree: ws.Tree}
		if c.Bool("undefined") {
			view.Linkage = ws.Linkage
		}
		return formatter.Output(view)
	}

	report := &output.Report{}
	for _, path := range scan.Files {
		tree, linkage, err := svc.BuildTree(path)
		if err != nil {
			logger.Warn("file skipped", "path", path, "error", err)
			continue
		}
		view := &output.TreeView{Tree: tree}
		if c.Bool("undefined") {
			view.Linkage = linkage
		}
		report.Sections = append(report.Sections, view)
	}
	return formatter.Output(report)
}
