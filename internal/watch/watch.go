// Package watch is a thin fsnotify-driven convenience driver for the CLI's
// `watch` subcommand: it batches filesystem events and feeds them to the
// Incremental Updater one at a time, never touching the live graph from
// more than one goroutine concurrently.
//
// Grounded on a Watcher/WatcherConfig/WatchEvent/EventBatch debounce+batch
// loop, narrowed from a multi-language builder integration down to the
// analyzer's Incremental Updater and restructured so the debounce goroutine
// only ever
// hands completed batches to a single consumer goroutine that owns the
// Orchestrator — matching spec.md §5's single-writer shared-resource
// policy (the event-delivery goroutine is I/O plumbing, not a second
// mutator).
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dhivijit/ripplecheck/internal/tsparse"
	"github.com/dhivijit/ripplecheck/internal/updater"
)

// Config mirrors a conventional WatcherConfig shape, trimmed to this
// analyzer's concerns.
type Config struct {
	DebounceDuration time.Duration
	BatchSize        int
	WatchDirs        []string
	Verbose          bool
	EventCallback    func(Event)
	ErrorCallback    func(error)
}

func DefaultConfig() Config {
	return Config{
		DebounceDuration: 300 * time.Millisecond,
		BatchSize:        50,
	}
}

// Event is a single filesystem change relevant to this analyzer.
type Event struct {
	Path      string
	Operation string // "create", "write", "remove", "rename"
	Time      time.Time
}

// Watcher drives fsnotify and applies changes through orch.
type Watcher struct {
	orch      *updater.Orchestrator
	config    Config
	fsWatcher *fsnotify.Watcher

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func New(orch *updater.Orchestrator, config Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{orch: orch, config: config, fsWatcher: fsw}, nil
}

// Start begins watching config.WatchDirs. It spawns two goroutines: one
// drains raw fsnotify events into a debounced batch, the other drains
// completed batches and applies them through the Orchestrator — the only
// goroutine that ever calls into orch, preserving single-writer semantics.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.config.WatchDirs {
		if err := w.addRecursive(dir); err != nil {
			cancel()
			return err
		}
	}

	batches := make(chan []Event, 4)
	go w.collect(watchCtx, batches)
	go w.apply(watchCtx, batches)
	return nil
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.fsWatcher.Close()
	w.running = false
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == "node_modules" || name == ".git" {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// collect debounces raw fsnotify events into batches of up to BatchSize,
// flushed after DebounceDuration of quiet or when the batch fills.
func (w *Watcher) collect(ctx context.Context, out chan<- []Event) {
	defer close(out)

	var pending []Event
	timer := time.NewTimer(w.config.DebounceDuration)
	if !timer.Stop() {
		<-timer.C
	}
	timerActive := false

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := pending
		pending = nil
		select {
		case out <- batch:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				flush()
				return
			}
			if !tsparse.IsSupported(ev.Name) {
				continue
			}
			op := classify(ev.Op)
			if op == "" {
				continue
			}
			pending = append(pending, Event{Path: ev.Name, Operation: op, Time: time.Now().UTC()})
			if w.config.EventCallback != nil {
				w.config.EventCallback(pending[len(pending)-1])
			}
			if len(pending) >= w.config.BatchSize {
				if timerActive {
					if !timer.Stop() {
						<-timer.C
					}
					timerActive = false
				}
				flush()
				continue
			}
			if !timerActive {
				timer.Reset(w.config.DebounceDuration)
				timerActive = true
			}

		case <-timer.C:
			timerActive = false
			flush()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				continue
			}
			if w.config.ErrorCallback != nil {
				w.config.ErrorCallback(err)
			}
		}
	}
}

func classify(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	default:
		return ""
	}
}

// apply is the single consumer goroutine that calls into the Orchestrator,
// applying each event within a batch in order via HandleFileChanged (create,
// write, rename to an existing path) or HandleFileDeleted (remove, rename
// away).
func (w *Watcher) apply(ctx context.Context, batches <-chan []Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			for _, ev := range batch {
				w.applyOne(ev)
			}
		}
	}
}

func (w *Watcher) applyOne(ev Event) {
	switch ev.Operation {
	case "remove":
		w.orch.HandleFileDeleted(ev.Path)
	case "rename":
		if _, err := os.Stat(ev.Path); err != nil {
			w.orch.HandleFileDeleted(ev.Path)
			return
		}
		w.readAndApply(ev.Path)
	default: // create, write
		w.readAndApply(ev.Path)
	}
}

func (w *Watcher) readAndApply(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		if w.config.ErrorCallback != nil {
			w.config.ErrorCallback(err)
		}
		return
	}
	w.orch.HandleFileChanged(path, content)
}
