//go:build darwin

package inventory

import (
	"os"
	"syscall"
	"time"
)

// isReparsePoint reports whether the entry is a symlink. Junctions do not
// exist outside Windows.
func isReparsePoint(info os.FileInfo) bool {
	return info.Mode()&os.ModeSymlink != 0
}

// creationTime returns the file's birth time from the stat structure.
func creationTime(info os.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
}
