// internal/watch/watcher.go
package watch

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher notes changes to the entries of one directory, so a shell can tell
// whether the listing a plan was built from is still current.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	ignore  map[string]bool
	logger  *zap.Logger

	mu      sync.RWMutex
	changed map[string]fsnotify.Op
	done    chan struct{}
}

// New starts watching dir. Events on the ignored names, and on the temp files
// written next to them, are dropped.
func New(dir string, logger *zap.Logger, ignore ...string) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		dir:     dir,
		watcher: fw,
		ignore:  make(map[string]bool, len(ignore)),
		logger:  logger,
		changed: make(map[string]fsnotify.Op),
		done:    make(chan struct{}),
	}
	for _, name := range ignore {
		w.ignore[name] = true
	}

	go w.watchLoop()
	return w, nil
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if w.ShouldIgnore(name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
		return
	}

	w.mu.Lock()
	w.changed[name] |= event.Op
	w.mu.Unlock()

	w.logger.Debug("directory changed",
		zap.String("dir", w.dir),
		zap.String("name", name),
		zap.String("op", event.Op.String()))
}

func (w *Watcher) ShouldIgnore(name string) bool {
	if name == "" || w.ignore[name] {
		return true
	}
	for ignored := range w.ignore {
		if strings.HasPrefix(name, ignored+".tmp-") {
			return true
		}
	}
	return false
}

// Changed reports whether any entry changed since the watch started.
func (w *Watcher) Changed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.changed) > 0
}

// Events lists the changed names, sorted.
func (w *Watcher) Events() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.changed))
	for name := range w.changed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset forgets the changes seen so far.
func (w *Watcher) Reset() {
	w.mu.Lock()
	w.changed = make(map[string]fsnotify.Op)
	w.mu.Unlock()
}

func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
