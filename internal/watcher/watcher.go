// Package watcher provides debounced file system watching for the config
// file, driving auto-reload.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"tooban/internal/log"
	"tooban/internal/pubsub"
)

// EventType identifies the kind of watcher event.
type EventType int

const (
	// ConfigChanged means the watched file was written or replaced.
	ConfigChanged EventType = iota
	// WatchError carries an fsnotify error. The watch keeps running.
	WatchError
)

// Event is the payload published on the watcher's broker.
type Event struct {
	Type EventType
	Err  error
}

// Watcher monitors the config file and publishes debounced change events.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	broker    *pubsub.Broker[Event]
	done      chan struct{}
}

// Config holds watcher options.
type Config struct {
	// Path is the config file to watch.
	Path string
	// Debounce collapses bursts of events into one notification. Editors
	// and the atomic writer both touch the file more than once per save.
	Debounce time.Duration
}

// DefaultConfig returns the default options for watching path.
func DefaultConfig(path string) Config {
	return Config{Path: path, Debounce: 500 * time.Millisecond}
}

// New creates a watcher for the file named in cfg.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsWatcher: fsw,
		path:      cfg.Path,
		debounce:  cfg.Debounce,
		broker:    pubsub.NewBroker[Event](),
		done:      make(chan struct{}),
	}, nil
}

// Broker exposes the event stream. Subscribe before Start to avoid missing
// the first notification.
func (w *Watcher) Broker() *pubsub.Broker[Event] {
	return w.broker
}

// Start begins watching. The watch is on the parent directory: saves that
// replace the file via rename would otherwise detach a direct file watch.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	log.Debug(log.CatWatcher, "watching config file", "path", w.path, "debounce", w.debounce)

	go w.loop()
	return nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	err := w.fsWatcher.Close()
	w.broker.Close()
	return err
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = true

		case <-timerChan(timer):
			if pending {
				w.broker.Publish("config.changed", Event{Type: ConfigChanged})
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err)
			w.broker.Publish("watch.error", Event{Type: WatchError, Err: err})

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func timerChan(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// relevant reports whether the event touches the watched file. Create and
// Rename matter because atomic saves move a temp file into place.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Base(event.Name) == filepath.Base(w.path)
}
