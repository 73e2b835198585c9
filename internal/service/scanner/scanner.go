package scanner

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/panbanda/metriculator/internal/scanner"
	"github.com/panbanda/metriculator/pkg/config"
	"github.com/panbanda/metriculator/pkg/parser"
)

// ScanResult contains the result of a file scan.
type ScanResult struct {
	Files          []string
	LanguageGroups map[parser.Language][]string
	RepoRoot       string
	Skipped        int
}

// Service provides file scanning functionality.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{config: config.LoadOrDefault()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanPaths scans files and directories and returns the C and C++ sources
// found. Files larger than the configured maximum are dropped and counted.
func (s *Service) ScanPaths(paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	scan := scanner.NewScanner(s.config)
	var files []string

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		if !info.IsDir() {
			ok, err := scan.ScanFile(absPath)
			if err != nil {
				return nil, &ScanError{Path: path, Err: err}
			}
			if ok {
				files = append(files, absPath)
			}
			continue
		}
		found, err := scan.ScanDir(absPath)
		if err != nil {
			return nil, &ScanError{Path: path, Err: err}
		}
		files = append(files, found...)
	}

	files, skipped := scanner.FilterBySize(files, s.config.Analysis.MaxFileSize)

	result := &ScanResult{
		Files:          files,
		LanguageGroups: scan.GroupByLanguage(files),
		Skipped:        skipped,
	}
	if root, err := FindRepoRoot(paths[0]); err == nil {
		result.RepoRoot = root
	}
	return result, nil
}

// FindRepoRoot returns the work tree root of the git repository containing
// path.
func FindRepoRoot(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", &GitError{Err: err}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", &GitError{Err: err}
	}
	return wt.Filesystem.Root(), nil
}

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// GitError indicates the path is not inside a git repository.
type GitError struct {
	Err error
}

func (e *GitError) Error() string {
	return "not a git repository (or any parent): " + e.Err.Error()
}

func (e *GitError) Unwrap() error {
	return e.Err
}
