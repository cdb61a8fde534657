package orchestrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/sharemig/sharemig/pkg/sharemig/inventory"
	"github.com/sharemig/sharemig/pkg/sharemig/logging"
)

// Watch observes outDir while a spawned batch runs and invokes fn each time
// a run directory completes its folder summary. New run directories are
// added to the watch as they appear. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, outDir string, fn func(runDir string)) error {
	log := logging.Get("orchestrate")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(outDir); err != nil {
		return err
	}
	// Run directories that existed before the watch started.
	if entries, err := os.ReadDir(outDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				_ = watcher.Add(filepath.Join(outDir, entry.Name()))
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
				if filepath.Dir(event.Name) == filepath.Clean(outDir) {
					_ = watcher.Add(event.Name)
				}
				continue
			}
			if strings.EqualFold(filepath.Base(event.Name), inventory.SummaryFile) {
				log.Debug("run summary observed", "path", event.Name)
				fn(filepath.Dir(event.Name))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "err", err)
		}
	}
}
