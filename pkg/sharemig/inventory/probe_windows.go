//go:build windows

package inventory

import (
	"os"
	"syscall"
	"time"
)

// isReparsePoint reports whether the entry is an NTFS reparse point
// (symlink, junction, or mount point).
func isReparsePoint(info os.FileInfo) bool {
	if info.Mode()&os.ModeSymlink != 0 {
		return true
	}
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return false
	}
	return attrs.FileAttributes&syscall.FILE_ATTRIBUTE_REPARSE_POINT != 0
}

// creationTime returns the entry's creation time from the Win32 attribute
// data.
func creationTime(info os.FileInfo) time.Time {
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(0, attrs.CreationTime.Nanoseconds())
}
