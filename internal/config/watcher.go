package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the write bursts editors produce on save.
const reloadDebounce = 100 * time.Millisecond

// Handler receives the newly loaded configuration after a reload.
type Handler func(cfg Config)

// Watcher reloads the configuration file when it changes on disk and hands
// the result to a handler. It watches the file's directory rather than the
// file itself so atomic save-and-rename writes are observed.
type Watcher struct {
	mu sync.Mutex

	path    string
	watcher *fsnotify.Watcher
	handler Handler

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup

	pending *time.Timer
}

// NewWatcher creates a watcher for the given config file. The handler is
// invoked with the reloaded configuration; load errors leave the previous
// configuration in effect and are dropped.
func NewWatcher(path string, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		watcher: fsw,
		handler: handler,
		closeCh: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.pending != nil {
		w.pending.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	w.watcher.Close()
	w.wg.Wait()
}

// loop processes fsnotify events until the watcher is closed.
func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are not fatal; the next event still reloads.
		}
	}
}

// scheduleReload debounces rapid writes before reloading.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(reloadDebounce, w.reload)
}

// reload loads the file and notifies the handler.
func (w *Watcher) reload() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	handler := w.handler
	w.mu.Unlock()

	cfg, err := Load(w.path)
	if err != nil || handler == nil {
		return
	}
	handler(cfg)
}
