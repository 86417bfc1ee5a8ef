package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mzhou/focusfield/internal/analyzer"
)

// Watcher watches a single source file and re-runs the focus analysis at a
// pinned cursor position whenever the file changes
type Watcher struct {
	filePath  string
	line      int
	column    int
	fsWatcher *fsnotify.Watcher

	// Debouncing
	debounceDelay time.Duration
	pending       bool
	pendingMu     sync.Mutex
	debounceTimer *time.Timer

	// Callbacks
	onAnalysisStart func()
	onAnalysisDone  func(ctx *analyzer.FocusContext, duration time.Duration)
	onError         func(error)

	// Control
	done chan struct{}
}

// Option configures the watcher
type Option func(*Watcher)

// WithDebounceDelay sets the debounce delay
func WithDebounceDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithOnAnalysisStart sets the callback for when analysis starts
func WithOnAnalysisStart(fn func()) Option {
	return func(w *Watcher) {
		w.onAnalysisStart = fn
	}
}

// WithOnAnalysisDone sets the callback for when analysis completes.
// ctx is nil when the cursor no longer sits on a recognizable entity.
func WithOnAnalysisDone(fn func(ctx *analyzer.FocusContext, duration time.Duration)) Option {
	return func(w *Watcher) {
		w.onAnalysisDone = fn
	}
}

// WithOnError sets the callback for errors
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New creates a Watcher pinned to a file and a 1-based cursor position.
// fsnotify reports events per directory, so the file's parent is watched and
// events for other files in it are filtered out.
func New(filePath string, line, column int, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	abs, err := filepath.Abs(filePath)
	if err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to resolve file path: %w", err)
	}

	w := &Watcher{
		filePath:      abs,
		line:          line,
		column:        column,
		fsWatcher:     fsWatcher,
		debounceDelay: 500 * time.Millisecond, // Default debounce
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return w, nil
}

// Start begins watching for changes
func (w *Watcher) Start() {
	go w.eventLoop()
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// eventLoop handles file system events
func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// handleEvent processes a single file system event
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.shouldHandle(event) {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending = true

	// Reset debounce timer
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.triggerAnalysis)
}

// shouldHandle filters events down to writes on the watched file. Editors
// that save via rename emit Create/Rename instead of Write, so those count too.
func (w *Watcher) shouldHandle(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.filePath {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// triggerAnalysis runs the analysis after debounce
func (w *Watcher) triggerAnalysis() {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = false
	w.pendingMu.Unlock()

	if !pending {
		return
	}

	if w.onAnalysisStart != nil {
		w.onAnalysisStart()
	}

	startTime := time.Now()

	ctx, err := w.runAnalysis()
	if err != nil {
		if w.onError != nil {
			w.onError(fmt.Errorf("analysis failed: %w", err))
		}
		return
	}

	if w.onAnalysisDone != nil {
		w.onAnalysisDone(ctx, time.Since(startTime))
	}
}

// runAnalysis re-reads the file and recomputes the focus field
func (w *Watcher) runAnalysis() (*analyzer.FocusContext, error) {
	data, err := os.ReadFile(w.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return analyzer.CreateFocusField(string(data), w.filePath, w.line, w.column), nil
}
