// Package watcher reloads the skill store when skill directories change on
// disk. Reloads go through the store's atomic snapshot swap, so selection
// sessions already in flight finish against the snapshot they started with.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/contextforge/skillet/pkg/logger"
)

const (
	debounceInterval = 500 * time.Millisecond
	reloadAttempts   = 3
	reloadDelay      = 200 * time.Millisecond
)

// Watcher watches skill directories and triggers debounced reloads.
type Watcher struct {
	dirs   []string
	reload func(ctx context.Context) error
}

// New creates a watcher over the given directories. Directories that do not
// exist yet are skipped; they are picked up on the next restart.
func New(dirs []string, reload func(ctx context.Context) error) (*Watcher, error) {
	if reload == nil {
		return nil, errors.New("reload function is required")
	}
	return &Watcher{dirs: dirs, reload: reload}, nil
}

// Run watches until the context is cancelled. Filesystem events are
// debounced so a burst of writes (e.g. a plugin install) triggers a single
// reload; a failed reload is retried with backoff and, if it still fails,
// leaves the previous snapshot serving.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create filesystem watcher")
	}
	defer fsw.Close()

	watched := 0
	for _, dir := range w.dirs {
		if err := addRecursive(fsw, dir); err != nil {
			logger.G(ctx).WithError(err).WithField("dir", dir).Debug("skipping unwatchable directory")
			continue
		}
		watched++
	}
	if watched == 0 {
		return errors.New("no skill directories could be watched")
	}

	logger.G(ctx).WithField("dirs", watched).Info("watching skill directories")

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// new skill directories need their own watch
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(fsw, event.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounceInterval)
				timerC = timer.C
			} else {
				timer.Reset(debounceInterval)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Warn("filesystem watcher error")

		case <-timerC:
			timer = nil
			timerC = nil
			w.doReload(ctx)
		}
	}
}

func (w *Watcher) doReload(ctx context.Context) {
	err := retry.Do(
		func() error { return w.reload(ctx) },
		retry.Attempts(reloadAttempts),
		retry.Delay(reloadDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		logger.G(ctx).WithError(err).Error("skill reload failed; previous snapshot remains active")
		return
	}
	logger.G(ctx).Info("skill store reloaded")
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
