//go:build !windows && !darwin

package inventory

import (
	"os"
	"time"
)

// isReparsePoint reports whether the entry is a symlink. Junctions do not
// exist outside Windows.
func isReparsePoint(info os.FileInfo) bool {
	return info.Mode()&os.ModeSymlink != 0
}

// creationTime falls back to the modification time; Linux does not reliably
// expose birth time through syscall.Stat_t.
func creationTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
