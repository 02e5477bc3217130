package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 300 * time.Millisecond

// watcher reruns a build whenever one of the files the last successful build
// depended on changes. Directories are watched rather than files so that
// editors which save by renaming a temporary file are still noticed.
type watcher struct {
	fs       *fsnotify.Watcher
	logger   *log.Logger
	interval time.Duration

	files map[string]bool
	dirs  map[string]bool
}

func newWatcher(logger *log.Logger, interval time.Duration) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &watcher{
		fs:       fsw,
		logger:   logger,
		interval: interval,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}, nil
}

func (w *watcher) Close() error {
	return w.fs.Close()
}

// track replaces the watched file set with paths. Directories that no longer
// hold a tracked file are unwatched.
func (w *watcher) track(paths []string) error {
	files := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, path := range paths {
		path = filepath.Clean(path)
		files[path] = true
		dirs[filepath.Dir(path)] = true
	}

	for dir := range dirs {
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.logger.Debug("watching directory", "dir", dir)
	}
	for dir := range w.dirs {
		if !dirs[dir] {
			_ = w.fs.Remove(dir)
		}
	}

	w.files = files
	w.dirs = dirs
	return nil
}

// watchedFiles returns the tracked files, sorted.
func (w *watcher) watchedFiles() []string {
	files := make([]string, 0, len(w.files))
	for file := range w.files {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

func (w *watcher) isRelevantChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.files[filepath.Clean(event.Name)]
}

// run calls rebuild once per burst of relevant changes until ctx is done.
// A failing rebuild is logged and watching continues.
func (w *watcher) run(ctx context.Context, rebuild func(context.Context) error) error {
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.isRelevantChange(event) {
				continue
			}
			w.logger.Debug("change", "file", event.Name, "op", event.Op.String())
			debounce = time.After(w.interval)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "err", err)

		case <-debounce:
			debounce = nil
			if err := rebuild(ctx); err != nil {
				w.logger.Error("rebuild failed", "err", err)
			}
		}
	}
}
