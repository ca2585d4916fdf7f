package presenter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch signals on the returned channel after name inside dir is created,
// written or renamed into place. Bursts are collapsed into one signal. The
// channel closes when ctx is done.
//
// The directory is watched rather than the file so atomic replacements
// (write temp, rename) are seen.
func Watch(ctx context.Context, dir, name string) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		defer close(out)

		var debounce *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name || !ev.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.NewTimer(debounceDelay)
				fire = debounce.C
			case <-fire:
				fire = nil
				select {
				case out <- struct{}{}:
				default:
					// A signal is already pending.
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("presenter watch error", "err", err)
			}
		}
	}()
	return out, nil
}
