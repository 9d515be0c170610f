// Package watch invalidates cached local documentation when files under the
// docs root change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docmirror/internal/logfields"
)

// Invalidator is notified once per debounced burst of changes.
type Invalidator interface {
	Invalidate(ctx context.Context, source string) int
}

// Source is the invalidation source reported by the watcher.
const Source = "watcher"

// Watcher monitors a directory tree recursively.
type Watcher struct {
	root     string
	debounce time.Duration
	target   Invalidator
	watcher  *fsnotify.Watcher

	pending  chan struct{}
	stopOnce sync.Once
	stop     chan struct{}
	done     sync.WaitGroup
}

// New creates a watcher for root. Nothing is watched until Start.
func New(root string, debounce time.Duration, target Invalidator) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		root:     abs,
		debounce: debounce,
		target:   target,
		watcher:  fw,
		pending:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}, nil
}

// Start adds every directory under root and begins processing events.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}
	slog.Info("Watching documentation tree", logfields.Path(w.root))

	w.done.Add(2)
	go w.eventLoop()
	go w.debounceLoop(ctx)
	return nil
}

// Stop closes the watcher and waits for its goroutines.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.watcher.Close()
		w.done.Wait()
	})
	return err
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	defer w.done.Done()
	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
			}
		}
	}
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	slog.Debug("Documentation change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.done.Done()
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.pending:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.target.Invalidate(ctx, Source)
		}
	}
}
