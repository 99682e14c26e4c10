// Package watch is an optional live-reload helper: it watches the central
// skill store and tool config files for local-dev changes and invokes a
// callback, debounced, per path. It is not part of the Sync Engine's core
// contract — it exists purely so `agentsync watch` can drive a tight
// edit/sync loop during development.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceWindow = 300 * time.Millisecond

// Watcher watches a fixed set of paths and calls OnChange, debounced per
// path, whenever fsnotify reports a write, create, remove or rename under
// one of them.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange func(path string)

	mu       sync.Mutex
	debounce map[string]*time.Timer
	wg       sync.WaitGroup
}

// New creates a Watcher over paths (directories are watched non-recursively,
// matching the central store's flat <root>/<skill-name>/ layout; files are
// watched directly) and calls onChange after each debounced change.
func New(paths []string, onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, onChange: onChange, debounce: map[string]*time.Timer{}}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := fsw.Add(p); err != nil {
			continue
		}
	}
	return w, nil
}

// Run blocks, dispatching debounced change callbacks, until ctx is
// cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			w.stopPending()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				w.stopPending()
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.debounced(event.Name)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) debounced(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, exists := w.debounce[path]; exists {
		t.Stop()
	}
	w.debounce[path] = time.AfterFunc(debounceWindow, func() {
		w.onChange(path)
		w.mu.Lock()
		delete(w.debounce, path)
		w.mu.Unlock()
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.debounce {
		t.Stop()
	}
}

// Close stops the underlying fsnotify watcher and waits for Run to return.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// CentralStoreTargets returns the top-level skill directories under root to
// watch — one level deep, mirroring the store's flat layout.
func CentralStoreTargets(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries)+1)
	out = append(out, root)
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, filepath.Join(root, e.Name()))
		}
	}
	return out
}
