// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/panbanda/metriculator/pkg/ast/treesitter"
	"github.com/sourcegraph/conc/pool"
)

// ErrFileTooLarge is returned for files above Options.MaxFileSize.
var ErrFileTooLarge = errors.New("file too large")

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *ProcessingErrors) Unwrap() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	errs := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		errs[i] = pe
	}
	return errs
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// Options configures a parallel run.
type Options struct {
	// Workers caps concurrency. Zero or less means 2x NumCPU.
	Workers int

	// MaxFileSize skips larger files with ErrFileTooLarge. Zero disables the check.
	MaxFileSize int64

	OnProgress ProgressFunc
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

func (o Options) progress() {
	if o.OnProgress != nil {
		o.OnProgress()
	}
}

func (o Options) checkSize(path string) error {
	if o.MaxFileSize <= 0 {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > o.MaxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}
	return nil
}

// MapFiles processes files in parallel, calling fn for each file with a
// provider owned by the calling worker. Providers are reused across files
// and closed before MapFiles returns. Results keep the order of files; a
// failed or cancelled file leaves no result and is reported in the returned
// errors.
func MapFiles[T any](ctx context.Context, files []string, opts Options, fn func(*treesitter.Provider, string) (T, error)) ([]T, *ProcessingErrors) {
	// At most opts.workers() files run at once, so the idle set never
	// exceeds the channel capacity.
	idle := make(chan *treesitter.Provider, opts.workers())
	defer func() {
		close(idle)
		for prov := range idle {
			prov.Close()
		}
	}()

	return run(ctx, files, opts, func(path string) (T, error) {
		var prov *treesitter.Provider
		select {
		case prov = <-idle:
		default:
			prov = treesitter.New()
		}
		defer func() { idle <- prov }()
		return fn(prov, path)
	})
}

func run[T any](ctx context.Context, files []string, opts Options, fn func(string) (T, error)) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	slots := make([]T, len(files))
	ok := make([]bool, len(files))
	errs := &ProcessingErrors{}

	p := pool.New().WithMaxGoroutines(opts.workers()).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			defer opts.progress()

			// Check for cancellation before processing
			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				return nil
			default:
			}

			if err := opts.checkSize(path); err != nil {
				errs.Add(path, err)
				return nil
			}

			result, err := fn(path)
			if err != nil {
				errs.Add(path, err)
				return nil // Don't stop pool on individual file errors
			}
			slots[i] = result
			ok[i] = true
			return nil
		})
	}
	_ = p.Wait() // Context errors are already captured in errs

	results := make([]T, 0, len(files))
	for i, r := range slots {
		if ok[i] {
			results = append(results, r)
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
