package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bolasblack/taskstodo/internal/lock"
	"github.com/bolasblack/taskstodo/internal/remote"
)

// Runner runs one sync. Implemented by *Engine.
type Runner interface {
	Run(ctx context.Context, sel remote.Selector) (*Result, error)
}

// WatchOptions configure Watch.
type WatchOptions struct {
	// TodoPath is the calcurse todo file whose changes trigger a sync.
	TodoPath string
	// Interval between periodic syncs; 0 disables them.
	Interval time.Duration
	// Debounce is the quiet period after the last change before syncing.
	Debounce time.Duration
	Logger   *log.Logger
	// OnResult is called after every run, successful or not.
	OnResult func(*Result, error)
}

// Watch runs a sync immediately, then again whenever the todo file changes
// and every Interval, until ctx is done. A failed run is logged and the loop
// continues. Watch returns nil when ctx is canceled.
func Watch(ctx context.Context, r Runner, sel remote.Selector, opts WatchOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "", log.LstdFlags)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// calcurse replaces the todo file on save, so watch its directory.
	todoPath := filepath.Clean(opts.TodoPath)
	if err := watcher.Add(filepath.Dir(todoPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(todoPath), err)
	}

	var tick <-chan time.Time
	if opts.Interval > 0 {
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	// Writes made by a run itself finish before lastRun, so their events are
	// dropped by changedSince.
	var lastRun time.Time
	runOnce := func(reason string) {
		logger.Printf("sync triggered by %s", reason)
		res, err := r.Run(ctx, sel)
		lastRun = time.Now()
		switch {
		case errors.Is(err, lock.ErrAlreadyRunning):
			logger.Printf("skipped: %v", err)
		case err != nil:
			logger.Printf("sync failed: %v", err)
		}
		if opts.OnResult != nil {
			opts.OnResult(res, err)
		}
	}

	runOnce("start")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != todoPath || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !changedSince(todoPath, lastRun) {
				continue
			}
			debounce.Reset(opts.Debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("watch error: %v", err)
		case <-debounce.C:
			runOnce("todo change")
		case <-tick:
			runOnce("interval")
		}
	}
}

// changedSince reports whether path was modified after t. A missing file
// counts as a change.
func changedSince(path string, t time.Time) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return true
	}
	return fi.ModTime().After(t)
}
