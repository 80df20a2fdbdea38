// Package envwatch reloads configuration when the .env file it came from changes.
package envwatch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
)

const debounceInterval = 100 * time.Millisecond

// Event represents an env watcher event.
type Event struct {
	Type   EventType
	Error  error
	Config *config.Config
}

// EventType defines the type of env watcher event.
type EventType int

const (
	// EventReloaded indicates the file was re-read successfully.
	EventReloaded EventType = iota
	// EventError indicates the watcher or the reload failed.
	EventError
)

// Loader reads configuration from an env file.
type Loader func(path string) (*config.Config, error)

// Service watches a single env file.
type Service struct {
	mu            sync.Mutex
	path          string
	load          Loader
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	closeOnce     sync.Once
}

// New starts watching path. An empty path yields a service that never emits.
// A nil loader defaults to config.LoadFrom.
func New(path string, load Loader) (*Service, error) {
	if load == nil {
		load = config.LoadFrom
	}

	s := &Service{
		path:      path,
		load:      load,
		eventChan: make(chan Event, 10),
		stopChan:  make(chan struct{}),
	}

	if path == "" {
		return s, nil
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	return s, nil
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Path returns the watched file.
func (s *Service) Path() string {
	return s.path
}

func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory; editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

func (s *Service) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.reload)
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) reload() {
	select {
	case <-s.stopChan:
		return
	default:
	}

	cfg, err := s.load(s.path)
	if err != nil {
		logger.Warn("env reload failed", "path", s.path, "error", err)
		s.sendEvent(Event{Type: EventError, Error: fmt.Errorf("reload %s: %w", filepath.Base(s.path), err)})
		return
	}

	logger.Info("configuration reloaded", "path", s.path)
	s.sendEvent(Event{Type: EventReloaded, Config: cfg})
}

// sendEvent sends without blocking, dropping the oldest event when full.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the watcher.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.mu.Unlock()

		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}
