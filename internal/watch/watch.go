package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events editors produce on save.
const DefaultDebounce = 300 * time.Millisecond

var watchedExt = map[string]bool{".sql": true, ".php": true, ".json": true}

// addTree watches dir and every directory below it, matching the loader's
// recursive walk.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

// Run calls fn every time a migration file under dirs or their nested
// directories is created, written, renamed or removed, at most once per
// debounce window. It blocks until ctx is cancelled. Errors returned by fn are logged and do not stop watching.
func Run(ctx context.Context, dirs []string, debounce time.Duration, fn func() error, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	for _, dir := range dirs {
		if err := addTree(w, dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(w, event.Name); err != nil {
						logger.Warn("failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
					}
					timer.Reset(debounce)
					continue
				}
			}
			if !watchedExt[filepath.Ext(event.Name)] || event.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("migration file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			if err := fn(); err != nil {
				logger.Error("re-validation failed", zap.Error(err))
			}
		}
	}
}
