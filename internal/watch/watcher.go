package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/panbanda/metriculator/pkg/config"
	"github.com/panbanda/metriculator/pkg/parser"
)

// DefaultDebounce is how long a file must stay unchanged before it is
// reported.
const DefaultDebounce = 500 * time.Millisecond

// Callback receives a sorted batch of changed C and C++ files. Removed and
// renamed files are included; they no longer exist when the batch arrives.
type Callback func(ctx context.Context, paths []string)

// Watcher monitors a directory tree and reports changed source files in
// debounced batches.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	path      string
	callback  Callback
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewWatcher creates a new file watcher rooted at path.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		path:      path,
		logger:    slog.New(slog.DiscardHandler),
		pending:   make(map[string]time.Time),
	}, nil
}

// SetCallback sets the function called with each batch of changed files.
func (w *Watcher) SetCallback(cb Callback) {
	w.callback = cb
}

// SetLogger sets the logger for watch errors.
func (w *Watcher) SetLogger(l *slog.Logger) {
	w.logger = l
}

// Start watches until ctx is done. It returns only after any running
// callback has finished.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.path, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		for _, excluded := range w.config.Exclude.Dirs {
			if d.Name() == excluded && path != w.path {
				return filepath.SkipDir
			}
		}
		return w.fsWatcher.Add(path)
	})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wg.Go(func() { w.processDebounced(ctx) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// handleEvent records writes, creates, removals and renames of analyzable
// files.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	path := event.Name
	if w.config.ShouldExclude(path) {
		return
	}
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return
	}
	if parser.IsHeader(path) && !w.config.Analysis.Headers {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

// processPending hands files that have been stable for the debounce period
// to the callback as one batch. Batches never overlap.
func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	if len(ready) == 0 || w.callback == nil {
		return
	}
	sort.Strings(ready)
	w.callback(ctx, ready)
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
