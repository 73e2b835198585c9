package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/panbanda/metriculator/internal/cache"
	"github.com/panbanda/metriculator/internal/fileproc"
	"github.com/panbanda/metriculator/pkg/ast/treesitter"
	"github.com/panbanda/metriculator/pkg/config"
	"github.com/panbanda/metriculator/pkg/metrics"
	"github.com/panbanda/metriculator/pkg/model"
	"github.com/panbanda/metriculator/pkg/traversal"
)

// ErrUnknownBuilder is returned when the configured builder has no
// implementation.
var ErrUnknownBuilder = errors.New("unknown builder")

// Service orchestrates scope analysis of C and C++ files.
type Service struct {
	config *config.Config
	cache  *cache.Cache
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithCache sets the per-file report cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new analysis service. Without WithCache the service never
// caches.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache, _ = cache.New("", 0, "", false)
	}
	return s
}

// Options configures one analysis run.
type Options struct {
	OnProgress func()
}

// FileError is a file that could not be analyzed.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report is the result of analyzing a set of files.
type Report struct {
	Files   []FileReport    `json:"files"`
	Summary metrics.Summary `json:"summary"`

	// Undefined lists declarations with no definition in any analyzed file.
	Undefined  []string            `json:"undefined,omitempty"`
	Violations []metrics.Violation `json:"violations,omitempty"`
	Errors     []FileError         `json:"errors,omitempty"`
}

// Functions returns the function metrics of every file.
func (r *Report) Functions() []metrics.FunctionMetrics {
	var fns []metrics.FunctionMetrics
	for _, f := range r.Files {
		fns = append(fns, f.Functions...)
	}
	return fns
}

func (s *Service) visitorOptions(listeners ...traversal.Listener) ([]traversal.Option, error) {
	builder, ok := model.BuilderFor(s.config.Analysis.Builder)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBuilder, s.config.Analysis.Builder)
	}
	opts := []traversal.Option{
		traversal.WithBuilder(builder),
		traversal.WithLogger(s.logger),
		traversal.WithListeners(listeners...),
	}
	if s.config.Analysis.Members {
		opts = append(opts, traversal.WithMembers())
	}
	return opts, nil
}

// Analyze builds one scope tree per file and measures it. Files that fail are
// reported in Report.Errors; the returned error is only set when nothing
// could run at all.
func (s *Service) Analyze(ctx context.Context, files []string, opts Options) (*Report, error) {
	if _, err := s.visitorOptions(); err != nil {
		return nil, err
	}

	popts := fileproc.Options{
		Workers:     s.config.Analysis.Workers,
		MaxFileSize: s.config.Analysis.MaxFileSize,
		OnProgress:  opts.OnProgress,
	}
	reports, errs := fileproc.MapFiles(ctx, files, popts, s.AnalyzeFile)

	report := &Report{Files: reports}
	if errs != nil {
		for _, e := range errs.Errors {
			s.logger.Warn("analysis failed", "path", e.Path, "error", e.Err)
			report.Errors = append(report.Errors, FileError{Path: e.Path, Error: e.Err.Error()})
		}
		sort.Slice(report.Errors, func(i, j int) bool { return report.Errors[i].Path < report.Errors[j].Path })
	}

	for _, f := range reports {
		report.Violations = append(report.Violations, f.Violations...)
	}
	report.Summary = metrics.Summarize(report.Functions())
	report.Undefined = undefinedAcross(reports)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// AnalyzeFile analyzes a single file with prov. Reports are served from the
// cache when the file content and analysis settings are unchanged.
func (s *Service) AnalyzeFile(prov *treesitter.Provider, path string) (FileReport, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return FileReport{}, err
	}

	var fr FileReport
	if s.cache.Get(path, content, &fr) {
		s.logger.Debug("cache hit", "path", path)
		fr.Cached = true
		return fr, nil
	}

	tu, err := prov.ParseSource(path, content)
	if err != nil {
		return FileReport{}, err
	}
	unit := tu.(*treesitter.Unit)

	root, err := model.NewFile(tu)
	if err != nil {
		return FileReport{}, err
	}
	tree := model.NewTree(root)

	structure := metrics.NewStructure()
	complexity := metrics.NewComplexity(unit.Result())
	linkage := metrics.NewLinkage()
	recorder := &traversal.Recorder{}

	vopts, err := s.visitorOptions(structure, complexity, linkage, recorder)
	if err != nil {
		return FileReport{}, err
	}
	if err := traversal.New(tree, vopts...).Traverse(tu); err != nil {
		return FileReport{}, err
	}
	structure.Finish(tree, tree.Root())

	fr = FileReport{
		Path:        path,
		Language:    prov.Language(path).String(),
		Header:      unit.IsHeaderUnit(),
		ParseErrors: unit.HasErrors(),
		Scopes:      Flatten(tree),
		Events:      recorder.Strings(),
		Structure:   *structure,
		Functions:   complexity.Functions,
		Undefined:   linkage.Undefined(),
	}

	th := s.config.MetricThresholds()
	for i := range fr.Functions {
		fr.Violations = append(fr.Violations, th.CheckFunction(&fr.Functions[i])...)
	}
	for _, tm := range structure.TypeDetails {
		fr.Violations = append(fr.Violations, th.CheckType(path, tm)...)
	}

	if err := s.cache.Set(path, content, fr); err != nil {
		s.logger.Warn("cache write failed", "path", path, "error", err)
	}
	s.logger.Debug("analyzed", "path", path, "scopes", len(fr.Scopes), "functions", len(fr.Functions))
	return fr, nil
}

// undefinedAcross returns declaration bindings that no file defines.
func undefinedAcross(reports []FileReport) []string {
	declared := make(map[string]bool)
	defined := make(map[string]bool)
	for _, f := range reports {
		for _, sc := range f.Scopes {
			if sc.Binding == "" {
				continue
			}
			switch sc.Kind {
			case model.KindFunctionDecl.String():
				declared[sc.Binding] = true
			case model.KindFunctionDef.String():
				defined[sc.Binding] = true
			}
		}
	}
	var out []string
	for key := range declared {
		if !defined[key] {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
