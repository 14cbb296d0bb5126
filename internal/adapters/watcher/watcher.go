// Package watcher re-runs work when dataset files change on disk.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jobrunner/csiaudit/internal/ports/output"
)

// Event represents a file system event.
type Event struct {
	Path      string
	Operation Operation
}

// Operation represents the type of file operation.
type Operation int

// File operation types.
const (
	OpCreate Operation = iota
	OpModify
	OpDelete
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Handler is called with every settled batch of events. Calls never overlap.
type Handler func(ctx context.Context, events []Event) error

// pendingEvent holds a debounced event with its operation.
type pendingEvent struct {
	op Operation
}

// Watcher watches a directory tree for dataset file changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler
	logger    *slog.Logger
	root      string
	debounce  time.Duration
	member    string // Path without extension when the root is a single dataset file

	mu       sync.Mutex
	pending  map[string]*pendingEvent
	lastSeen time.Time
}

// Config holds watcher configuration.
type Config struct {
	Root     string        // Directory watched recursively, or a single dataset file
	Debounce time.Duration // Quiet period before a batch is handled
}

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 2 * time.Second

// New creates a new file watcher.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		handler:   handler,
		logger:    logger,
		root:      cfg.Root,
		debounce:  cfg.Debounce,
		pending:   make(map[string]*pendingEvent),
	}, nil
}

// Run watches until ctx is canceled. Shapefile members change together,
// so events are collected until the tree has been quiet for the debounce
// period and then handed over as one batch.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsWatcher.Close() }()

	if err := w.addRoot(); err != nil {
		return err
	}

	go w.eventLoop(ctx)

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			batch := w.takeSettled(time.Now())
			if len(batch) == 0 {
				continue
			}
			w.logger.Info("dataset files changed", "events", len(batch))
			if err := w.handler(ctx, batch); err != nil {
				w.logger.Error("handler error", "events", len(batch), "error", err)
			}
		}
	}
}

func (w *Watcher) tick() time.Duration {
	return min(w.debounce/4+time.Millisecond, 250*time.Millisecond)
}

// addRoot watches the root tree. For a single dataset file the parent
// directory is watched and events are limited to the file and its
// Shapefile members.
func (w *Watcher) addRoot() error {
	absRoot, err := filepath.Abs(w.root)
	if err != nil {
		return err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return w.addTree(absRoot)
	}

	w.member = strings.TrimSuffix(absRoot, filepath.Ext(absRoot))
	parent := filepath.Dir(absRoot)
	if err := w.fsWatcher.Add(parent); err != nil {
		return err
	}
	w.logger.Debug("watching dataset file", "path", absRoot, "directory", parent)
	return nil
}

// isMember reports whether path belongs to the watched single-file dataset.
func (w *Watcher) isMember(path string) bool {
	return strings.TrimSuffix(path, filepath.Ext(path)) == w.member
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	return filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return err
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

// eventLoop processes fsnotify events.
func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// handleFsEvent records a dataset file event and follows new directories.
func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	if w.member != "" && !w.isMember(event.Name) {
		return
	}
	if w.member == "" && event.Op.Has(fsnotify.Create) && isDir(event.Name) {
		if err := w.addTree(event.Name); err != nil {
			w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
		}
		return
	}

	if !output.IsDatasetFile(event.Name) {
		return
	}

	w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())
	w.record(event.Name, fsnotifyOpToOperation(event.Op), time.Now())
}

// record adds an event to the pending batch.
func (w *Watcher) record(path string, op Operation, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastSeen = now
	existing, exists := w.pending[path]
	if !exists {
		w.pending[path] = &pendingEvent{op: op}
		return
	}
	existing.op = mergeOperation(existing.op, op)
}

// mergeOperation folds a new operation into a pending one.
func mergeOperation(existing, next Operation) Operation {
	switch {
	case existing == OpDelete && next == OpCreate:
		// Deleted then recreated
		return OpCreate
	case next == OpDelete:
		return OpDelete
	case existing == OpCreate:
		// Writes after a create stay a create
		return OpCreate
	}
	return next
}

// takeSettled returns the pending batch, sorted by path, once no event
// arrived for the debounce period.
func (w *Watcher) takeSettled(now time.Time) []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 || now.Sub(w.lastSeen) < w.debounce {
		return nil
	}

	batch := make([]Event, 0, len(w.pending))
	for path, p := range w.pending {
		batch = append(batch, Event{Path: path, Operation: p.op})
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })

	w.pending = make(map[string]*pendingEvent)
	return batch
}

// fsnotifyOpToOperation converts fsnotify.Op to our Operation type.
func fsnotifyOpToOperation(op fsnotify.Op) Operation {
	switch {
	case op.Has(fsnotify.Remove):
		return OpDelete
	case op.Has(fsnotify.Rename):
		// The file is gone from its original location
		return OpDelete
	case op.Has(fsnotify.Create):
		return OpCreate
	default:
		return OpModify
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
