// Package watch turns writes to a single file into debounced edit events.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/fsnotify/fsnotify"
)

// Event carries the file contents after a burst of writes settled.
type Event struct {
	Path string
	Text string
	At   time.Time
}

// Watcher monitors one file. Editors that save by renaming a temp file over
// the target are handled by watching the parent directory.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	logger    log.Interface

	last string

	events chan Event
	errors chan error

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a watcher for path. Writes closer together than debounce
// produce a single event.
func New(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		path:      filepath.Clean(abs),
		debounce:  debounce,
		logger:    log.WithField("path", abs),
		events:    make(chan Event, 16),
		errors:    make(chan error, 4),
		done:      make(chan struct{}),
	}, nil
}

// Events returns the channel of edit events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch and read errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Path is the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Start emits the current contents as the first event and begins watching.
func (w *Watcher) Start() error {
	info, err := os.Stat(w.path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", w.path)
	}
	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}
	w.last = string(data)
	w.events <- Event{Path: w.path, Text: w.last, At: time.Now()}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop shuts the watcher down and closes both channels.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		close(w.events)
		close(w.errors)
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.WithField("op", event.Op.String()).Debug("file changed")
			timer.Reset(w.debounce)

		case <-timer.C:
			w.emit()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

// emit reads the settled file and sends it unless the contents are
// unchanged since the last event.
func (w *Watcher) emit() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.report(err)
		return
	}
	text := string(data)
	if text == w.last {
		return
	}
	w.last = text

	select {
	case w.events <- Event{Path: w.path, Text: text, At: time.Now()}:
	case <-w.done:
	}
}

func (w *Watcher) report(err error) {
	select {
	case w.errors <- err:
	default:
		w.logger.WithError(err).Warn("dropping watch error")
	}
}
