package scan

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period after which pending events are delivered.
const DefaultDebounce = 250 * time.Millisecond

// FSWatcher is an EventSource backed by fsnotify. It watches one directory,
// non-recursively, and delivers debounced batches.
type FSWatcher struct {
	dir       string
	debounce  time.Duration
	fsWatcher *fsnotify.Watcher
	events    chan []WatchEvent
	stopChan  chan struct{}
	closeOnce sync.Once
	logger    logrus.FieldLogger
}

// NewFSWatcher starts watching dir.
func NewFSWatcher(dir string, debounce time.Duration, logger logrus.FieldLogger) (*FSWatcher, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}

	w := &FSWatcher{
		dir:       dir,
		debounce:  debounce,
		fsWatcher: fsWatcher,
		events:    make(chan []WatchEvent, 16),
		stopChan:  make(chan struct{}),
		logger:    logger.WithField("dir", dir),
	}
	go w.run()
	w.logger.Debug("Watching directory")
	return w, nil
}

// Watcher returns a WatchFunc producing FSWatchers with the given debounce.
func Watcher(debounce time.Duration, logger logrus.FieldLogger) WatchFunc {
	return func(dir string) (EventSource, error) {
		w, err := NewFSWatcher(dir, debounce, logger)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}

// Events implements EventSource.
func (w *FSWatcher) Events() <-chan []WatchEvent {
	return w.events
}

// Close stops the watcher. The events channel is closed once the loop exits.
func (w *FSWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stopChan)
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *FSWatcher) run() {
	defer close(w.events)

	var (
		pending []WatchEvent
		timer   = time.NewTimer(w.debounce)
		armed   bool
	)
	timer.Stop()
	defer timer.Stop()

	arm := func() {
		if armed && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.debounce)
		armed = true
	}

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				w.logger.Debug("fsnotify events channel closed")
				return
			}
			for _, e := range translate(event) {
				pending = coalesce(pending, e)
			}
			arm()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				w.logger.Debug("fsnotify errors channel closed")
				return
			}
			// events may have been dropped, so the listing can't be trusted
			w.logger.WithError(err).Warn("fsnotify watcher error")
			pending = coalesce(pending, Rescan())
			arm()

		case <-timer.C:
			armed = false
			if len(pending) == 0 {
				continue
			}
			batch := pairRenames(pending)
			select {
			case w.events <- batch:
				pending = nil
			default:
				w.logger.Debug("Event batch not consumed yet, retrying")
				arm()
			}

		case <-w.stopChan:
			return
		}
	}
}

// translate maps one fsnotify event to watch events. A rename only carries
// the old name here; pairRenames completes it.
func translate(event fsnotify.Event) []WatchEvent {
	var out []WatchEvent
	if event.Has(fsnotify.Create) {
		out = append(out, Create(event.Name))
	}
	if event.Has(fsnotify.Write) {
		out = append(out, Write(event.Name))
	}
	if event.Has(fsnotify.Remove) {
		out = append(out, Remove(event.Name))
	}
	if event.Has(fsnotify.Rename) {
		out = append(out, WatchEvent{Kind: EventRename, Path: event.Name})
	}
	if event.Has(fsnotify.Chmod) {
		out = append(out, Chmod(event.Name))
	}
	return out
}

// coalesce appends e unless it repeats the last pending event.
func coalesce(pending []WatchEvent, e WatchEvent) []WatchEvent {
	if n := len(pending); n > 0 && pending[n-1] == e {
		return pending
	}
	return append(pending, e)
}

// pairRenames joins each half rename with the next create in the batch.
// A rename with no matching create moved out of the directory and is
// reported as a removal.
func pairRenames(pending []WatchEvent) []WatchEvent {
	out := make([]WatchEvent, 0, len(pending))
	consumed := make(map[int]bool)
	for i, e := range pending {
		if consumed[i] {
			continue
		}
		if e.Kind != EventRename || e.Dest != "" {
			out = append(out, e)
			continue
		}
		paired := false
		for j := i + 1; j < len(pending); j++ {
			if pending[j].Kind == EventCreate && !consumed[j] {
				consumed[j] = true
				out = append(out, Rename(e.Path, pending[j].Path))
				paired = true
				break
			}
		}
		if !paired {
			out = append(out, Remove(e.Path))
		}
	}
	return out
}
