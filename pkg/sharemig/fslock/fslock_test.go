package fslock

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLockUnlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockfile")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	if err := Lock(f); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := Unlock(f); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestTryLockSameProcessReentry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockfile")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	if err := TryLock(f); err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if err := Unlock(f); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}
