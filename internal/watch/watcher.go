// Package watch turns file system events under one or more search roots into
// debounced change notifications.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/lgrep/internal/debug"
)

// DefaultDebounce is used when Options.Debounce is zero
const DefaultDebounce = 200 * time.Millisecond

type Options struct {
	Debounce time.Duration
	Hidden   bool // also watch dot-prefixed directories
}

// Watcher monitors every directory under its roots. A root that is a file is
// watched through its parent directory and only its own events are reported.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	hidden   bool
	files    map[string]bool // file roots
	fileDirs map[string]bool // parents watched only for file roots
}

// New adds watches for all roots. Roots must exist.
func New(roots []string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: opts.Debounce,
		hidden:   opts.Hidden,
		files:    make(map[string]bool),
		fileDirs: make(map[string]bool),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}

	for _, root := range roots {
		if err := w.addRoot(filepath.Clean(root)); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return w.addTree(root)
	}

	w.files[root] = true
	dir := filepath.Dir(root)
	if slices.Contains(w.fsw.WatchList(), dir) {
		return nil
	}
	w.fileDirs[dir] = true
	return w.fsw.Add(dir)
}

// addTree watches dir and every directory below it that a search would enter
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			debug.LogWatch("skipping %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.skipName(d.Name()) {
			return filepath.SkipDir
		}
		delete(w.fileDirs, path)
		return w.fsw.Add(path)
	})
}

func (w *Watcher) skipName(name string) bool {
	if name == ".git" {
		return true
	}
	return !w.hidden && strings.HasPrefix(name, ".")
}

// relevant drops metadata-only events and events outside what a search reads
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if w.fileDirs[filepath.Dir(ev.Name)] {
		return w.files[ev.Name]
	}
	return !w.skipName(filepath.Base(ev.Name))
}

// Run delivers batches of changed paths to onChange, sorted, once no new event has
// arrived for the debounce interval. onChange runs on the caller's goroutine.
// Run returns nil when ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			debug.LogWatch("event %v for %s", ev.Op, ev.Name)

			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						debug.LogWatch("failed to watch new directory %s: %v", ev.Name, err)
					}
				}
			}

			pending[ev.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			debug.LogWatch("watcher error: %v", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(pending)
			onChange(paths)
		}
	}
}

// Close stops all watches; a running Run returns
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
