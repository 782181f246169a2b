package audio

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"musee/logger"

	"github.com/fsnotify/fsnotify"
)

// segmentWatcher observes a rendition directory while ffmpeg writes into it
// and records how many segments appeared and how long the first one took.
// Purely observational: encode correctness never depends on it, and a
// watcher that fails to start degrades to a no-op.
type segmentWatcher struct {
	dir     string
	started time.Time

	mu       sync.Mutex
	seen     map[string]bool
	firstAt  time.Time
	done     chan struct{}
	finished chan struct{}
	watcher  *fsnotify.Watcher
}

func newSegmentWatcher(dir string) *segmentWatcher {
	return &segmentWatcher{
		dir:      dir,
		seen:     make(map[string]bool),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start begins watching. The directory must already exist.
func (w *segmentWatcher) Start(ctx context.Context) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("segment watcher unavailable", logger.ErrorField(err))
		close(w.finished)
		return
	}
	if err := fw.Add(w.dir); err != nil {
		logger.Warn("segment watcher cannot watch directory",
			logger.String("dir", w.dir),
			logger.ErrorField(err))
		fw.Close()
		close(w.finished)
		return
	}

	w.watcher = fw
	w.started = time.Now()

	go func() {
		defer close(w.finished)
		// Events fire on every write; a segment counts once it is
		// non-empty and its name has not been seen yet.
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if filepath.Ext(event.Name) != ".ts" {
					continue
				}
				w.record(event.Name)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				logger.Warn("segment watcher error", logger.ErrorField(err))
			}
		}
	}()
}

func (w *segmentWatcher) record(path string) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return
	}

	name := filepath.Base(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[name] {
		return
	}
	w.seen[name] = true
	if len(w.seen) == 1 {
		w.firstAt = time.Now()
		logger.Debug("first segment available",
			logger.String("dir", w.dir),
			logger.String("segment", name),
			logger.Duration("after", w.firstAt.Sub(w.started)))
	}
}

// Stop ends watching and returns the observed segment count and the delay
// until the first segment appeared (zero if none were observed).
func (w *segmentWatcher) Stop() (int, time.Duration) {
	if w.watcher != nil {
		close(w.done)
		w.watcher.Close()
	}
	<-w.finished

	w.mu.Lock()
	defer w.mu.Unlock()
	var firstIn time.Duration
	if !w.firstAt.IsZero() {
		firstIn = w.firstAt.Sub(w.started)
	}
	return len(w.seen), firstIn
}
