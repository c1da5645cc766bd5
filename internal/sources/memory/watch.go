package memory

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events editors emit on save.
const reloadDelay = 200 * time.Millisecond

// Watch reloads the store whenever a seed file under base is written,
// created or renamed, then calls onReload. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, base string, onReload func()) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	abs, err := filepath.Abs(base)
	if err != nil {
		return err
	}
	if err := fsw.Add(abs); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Watching seed directory", "path", abs)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !isSeedEvent(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			b, err := LoadSeed(abs)
			if err != nil {
				slog.ErrorContext(ctx, "Seed reload failed", "error", err)
				continue
			}
			s.Reload(b)
			slog.InfoContext(ctx, "Seed reloaded", "tracks", len(b.Tracks), "log_sheets", len(b.LogSheets))
			if onReload != nil {
				onReload()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Seed watcher error", "error", err)
		}
	}
}

func isSeedEvent(ev fsnotify.Event) bool {
	if !slices.Contains(seedFiles, filepath.Base(ev.Name)) {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
