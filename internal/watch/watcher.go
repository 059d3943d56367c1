// Package watch renders the state directory and keeps the rendering live
// while hooks change it.
package watch

import (
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/meridian-hooks/meridian/internal/logging"
)

// DefaultDebounce collapses the burst of events a single atomic write
// produces (temp file create, write, rename).
const DefaultDebounce = 50 * time.Millisecond

// Watcher reports changes to a directory on a channel.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	logger   *logging.Logger

	changes  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher watches dir, creating it if needed.
func NewWatcher(dir string, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		dir:      dir,
		debounce: DefaultDebounce,
		logger:   logger.WithComponent("watch"),
		changes:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}, nil
}

// Changes delivers one value per settled burst of changes. Bursts that
// arrive before the previous value is consumed are merged.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start begins watching.
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) watchLoop() {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-w.stopCh:
			timer.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			pending = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("state watch error", "dir", w.dir, "error", err)
		}
	}
}
