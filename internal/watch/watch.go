// Package watch re-runs conversion passes when the source file changes.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/asterism/internal/converter"
)

// DefaultDebounce is the quiet period applied when none is configured.
const DefaultDebounce = 200 * time.Millisecond

// Callback is called after every watcher-driven pass with its report and
// error. rep is never nil.
type Callback func(rep *converter.Report, err error)

// Options configure Watch.
type Options struct {
	// Input is the absolute path of the source file.
	Input    string
	Debounce time.Duration
}

// Watch starts an fsnotify watcher on the directory holding the source file
// and runs svc after each burst of changes to it, until ctx is cancelled.
//
// The directory rather than the file is watched so that editors which save
// by writing a new file and renaming it over the old one keep triggering
// passes.
func Watch(ctx context.Context, svc *converter.Service, opts Options, logger *slog.Logger, cb Callback) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	input := filepath.Clean(opts.Input)
	dir := filepath.Dir(input)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dir), slog.String("input", input))

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			fire = timer.C
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(opts.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			rep, runErr := svc.Run(ctx)
			if runErr != nil {
				logger.Warn("watcher: pass failed", slog.String("input", input), slog.String("error", runErr.Error()))
			} else {
				logger.Debug("watcher: pass done", slog.String("outcome", rep.Outcome))
			}
			if cb != nil {
				cb(rep, runErr)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != input {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				schedule()
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// The replacement, if any, arrives as a Create.
				logger.Debug("watcher: input moved away", slog.String("input", input), slog.String("op", ev.Op.String()))
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
