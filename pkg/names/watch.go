package names

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long Watch waits for writes to settle before reloading.
const WatchDebounce = 250 * time.Millisecond

// ReloadFunc rebuilds the dictionary after a source changed.
type ReloadFunc func(ctx context.Context) error

// Watch calls reload whenever one of paths changes. It watches the parent
// directories so that editors replacing files atomically are seen. It blocks
// until ctx is done.
func Watch(ctx context.Context, paths []string, reload ReloadFunc, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{}, len(paths))

	for _, path := range paths {
		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			return fmt.Errorf("resolve %s: %w", path, absErr)
		}

		watched[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		err = watcher.Add(dir)
		if err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	timer := time.NewTimer(WatchDebounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			abs, absErr := filepath.Abs(event.Name)
			if absErr != nil {
				continue
			}

			if _, tracked := watched[abs]; tracked {
				timer.Reset(WatchDebounce)
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.WarnContext(ctx, "name source watcher error", "error", watchErr)
		case <-timer.C:
			loadErr := reload(ctx)
			if loadErr != nil {
				logger.WarnContext(ctx, "reload names", "error", loadErr)
			}
		}
	}
}
