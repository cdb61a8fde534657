package inventory

import (
	"context"
	"errors"
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// QuickSize returns the total byte size of all regular files under root
// using a parallel walk. It trades the inventory walker's per-directory
// probing and row output for speed; the orchestrator uses it to order
// subfolders by weight before fan-out. Unreadable subtrees are skipped.
func QuickSize(ctx context.Context, root string) (int64, error) {
	var total atomic.Int64

	conf := fastwalk.Config{
		Follow: false, // reparse points are skipped, same as the walker
	}

	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if d != nil && d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total.Add(info.Size())
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		return total.Load(), err
	}
	return total.Load(), ctx.Err()
}
