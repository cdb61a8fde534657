// Package fslock provides advisory cross-process file locking for files
// shared between concurrent sharemig invocations, such as the centralized
// transfer-summary CSV and rotated log files.
//
// Locks are exclusive and block until acquired. TryLock returns ErrLocked
// immediately when another process holds the lock.
package fslock

import "errors"

// ErrLocked is returned by TryLock when the file is locked by another
// process.
var ErrLocked = errors.New("file is locked by another process")
