// Package watch checks key files as a generator writes them into a
// directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/user/leekcheck/internal/checker"
	"github.com/user/leekcheck/internal/keyfile"
)

const DefaultDebounce = 500 * time.Millisecond

type Config struct {
	Dir string
	// Suffix selects the files to check; it defaults to keyfile.DefaultSuffix.
	Suffix string
	// Debounce is how long a file must stay quiet before it is checked.
	Debounce time.Duration
	// Existing also checks matching files present when the watcher starts.
	Existing bool
}

// Handler receives the result of every checked file. Calls never overlap,
// so a handler may keep state and write output without locking.
type Handler func(checker.Result)

type Watcher struct {
	config  Config
	handler Handler
	log     logrus.FieldLogger

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup

	// handlerMu serializes handler calls from concurrent debounce timers.
	handlerMu sync.Mutex
}

func New(config Config, handler Handler, log logrus.FieldLogger) *Watcher {
	if config.Suffix == "" {
		config.Suffix = keyfile.DefaultSuffix
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Watcher{
		config:  config,
		handler: handler,
		log:     log.WithField("dir", config.Dir),
		timers:  make(map[string]*time.Timer),
	}
}

// Run watches the directory until ctx is cancelled. Pending debounced
// checks are dropped on return.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.Dir); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}
	w.log.WithField("suffix", w.config.Suffix).Info("Watching for key files")

	if w.config.Existing {
		if err := w.checkExisting(); err != nil {
			return err
		}
	}

	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.matches(event.Name) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				w.schedule(ctx, event.Name)
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.cancel(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("File watcher error")
		}
	}
}

func (w *Watcher) matches(path string) bool {
	return strings.HasSuffix(filepath.Base(path), w.config.Suffix)
}

func (w *Watcher) checkExisting() error {
	entries, err := os.ReadDir(w.config.Dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && w.matches(entry.Name()) {
			paths = append(paths, filepath.Join(w.config.Dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	for _, p := range paths {
		w.check(p)
	}
	return nil
}

// schedule restarts the debounce timer of path, so a file written in
// several chunks is checked once after the last write.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.timers[path]; exists && timer.Stop() {
		w.wg.Done()
	}

	var timer *time.Timer
	w.wg.Add(1)
	timer = time.AfterFunc(w.config.Debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		current := w.timers[path] == timer
		if current {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		if current && ctx.Err() == nil {
			w.check(path)
		}
	})
	w.timers[path] = timer
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.timers[path]; exists {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	for path, timer := range w.timers {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Watcher) check(path string) {
	result := checker.CheckSource(checker.FileSource{Path: path})
	w.log.WithFields(logrus.Fields{
		"file":    filepath.Base(path),
		"status":  result.Status,
		"address": result.Address,
	}).Debug("Checked key file")

	if w.handler != nil {
		w.handlerMu.Lock()
		w.handler(result)
		w.handlerMu.Unlock()
	}
}
