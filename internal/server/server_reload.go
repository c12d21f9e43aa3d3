package server

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/izzyreal/stitch/internal/catalog"
)

// catalogWatcher reloads the catalog when its source changes on disk. A
// reload that fails to parse or validate leaves the current snapshot live.
type catalogWatcher struct {
	source   string
	front    *storefront
	debounce time.Duration
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	match   func(path string) bool

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	done    chan struct{}
}

func startCatalogWatcher(source string, front *storefront, debounce time.Duration, logger *slog.Logger) (*catalogWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create catalog watcher: %w", err)
	}
	cw := &catalogWatcher{
		source:   source,
		front:    front,
		debounce: debounce,
		logger:   logger,
		watcher:  w,
		done:     make(chan struct{}),
	}
	if err := cw.addPaths(); err != nil {
		_ = w.Close()
		return nil, err
	}
	go cw.watchLoop()
	logger.Info("catalog watch enabled", "source", source, "debounce", debounce)
	return cw, nil
}

func (cw *catalogWatcher) addPaths() error {
	if catalog.IsGlob(cw.source) {
		base, rel := doublestar.SplitPattern(filepath.ToSlash(cw.source))
		baseDir := filepath.FromSlash(base)
		cw.match = func(path string) bool {
			r, err := filepath.Rel(baseDir, path)
			if err != nil {
				return false
			}
			ok, _ := doublestar.Match(rel, filepath.ToSlash(r))
			return ok
		}
		return filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if err := cw.watcher.Add(path); err != nil {
				return fmt.Errorf("watch %q: %w", path, err)
			}
			return nil
		})
	}

	// Editors replace files by rename, so watch the directory.
	target := filepath.Clean(cw.source)
	cw.match = func(path string) bool {
		path = filepath.Clean(path)
		return path == target || path == target+"-wal"
	}
	dir := filepath.Dir(target)
	if err := cw.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %q: %w", dir, err)
	}
	return nil
}

func (cw *catalogWatcher) watchLoop() {
	defer close(cw.done)
	for {
		select {
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(ev)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warn("catalog watch error", "error", err)
		}
	}
}

func (cw *catalogWatcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 && catalog.IsGlob(cw.source) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := cw.watcher.Add(ev.Name); err != nil {
				cw.logger.Warn("catalog watch add failed", "path", ev.Name, "error", err)
			}
			return
		}
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !cw.match(ev.Name) {
		return
	}
	cw.schedule()
}

// schedule collapses bursts of events into one reload.
func (cw *catalogWatcher) schedule() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.stopped {
		return
	}
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.timer = time.AfterFunc(cw.debounce, cw.reload)
}

func (cw *catalogWatcher) reload() {
	cw.mu.Lock()
	stopped := cw.stopped
	cw.mu.Unlock()
	if stopped {
		return
	}
	cat, err := LoadCatalog(cw.source)
	if err != nil {
		cw.logger.Warn("catalog reload rejected, keeping previous snapshot", "source", cw.source, "error", err)
		return
	}
	cw.front.swap(cat)
}

func (cw *catalogWatcher) Close() error {
	cw.mu.Lock()
	if cw.stopped {
		cw.mu.Unlock()
		return nil
	}
	cw.stopped = true
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.mu.Unlock()
	err := cw.watcher.Close()
	<-cw.done
	return err
}
