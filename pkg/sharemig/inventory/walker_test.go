package inventory

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// memorySink collects rows in memory for assertions.
type memorySink struct {
	rows []types.InventoryRow
}

func (m *memorySink) WriteRow(row *types.InventoryRow) error {
	m.rows = append(m.rows, *row)
	return nil
}

func (m *memorySink) byStatus(status types.AccessStatus) []types.InventoryRow {
	var out []types.InventoryRow
	for _, r := range m.rows {
		if r.AccessStatus == status {
			out = append(out, r)
		}
	}
	return out
}

func (m *memorySink) folders() []types.InventoryRow {
	var out []types.InventoryRow
	for _, r := range m.rows {
		if r.Type == types.EntryFolder {
			out = append(out, r)
		}
	}
	return out
}

// buildTree creates:
//
//	root/
//	  a.txt (10 bytes)
//	  b/
//	    c.txt (5 bytes)
//	  empty/
func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "a.txt"), make([]byte, 10), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "b"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "b", "c.txt"), make([]byte, 5), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestWalkOneFolderRowPerListableDir(t *testing.T) {
	root := buildTree(t)
	sink := &memorySink{}

	w := NewWalker(Options{Root: root}, sink)
	summary, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	folders := sink.folders()
	if len(folders) != 3 { // root, b, empty
		t.Fatalf("got %d folder rows, want 3: %+v", len(folders), folders)
	}

	seen := map[string]int{}
	for _, f := range folders {
		seen[f.Path]++
		if f.AccessStatus != types.StatusOK {
			t.Errorf("folder %s status = %s, want OK", f.Path, f.AccessStatus)
		}
	}
	for _, want := range []string{root, filepath.Join(root, "b"), filepath.Join(root, "empty")} {
		if seen[want] != 1 {
			t.Errorf("folder %s has %d rows, want exactly 1", want, seen[want])
		}
	}

	if summary.TotalFolders != 3 || summary.TotalFiles != 2 {
		t.Errorf("summary = %d folders / %d files, want 3/2", summary.TotalFolders, summary.TotalFiles)
	}
}

func TestWalkDeniedDirSingleRowNoDescent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforceable this way on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission denial cannot be simulated")
	}

	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	if err := os.MkdirAll(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(locked, "hidden.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	sink := &memorySink{}
	w := NewWalker(Options{Root: root}, sink)
	summary, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	denied := sink.byStatus(types.StatusDenied)
	if len(denied) != 1 || denied[0].Path != locked {
		t.Fatalf("denied rows = %+v, want exactly one for %s", denied, locked)
	}
	if denied[0].AccessError == "" {
		t.Error("denied row missing AccessError")
	}

	for _, r := range sink.rows {
		if r.Path == filepath.Join(locked, "hidden.txt") {
			t.Error("walker descended into denied directory")
		}
	}
	if summary.InaccessibleFolders != 1 {
		t.Errorf("InaccessibleFolders = %d, want 1", summary.InaccessibleFolders)
	}
}

func TestWalkComputeSize(t *testing.T) {
	root := buildTree(t)
	sink := &memorySink{}

	w := NewWalker(Options{Root: root, ComputeSize: true}, sink)
	summary, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if summary.TotalBytes != 15 {
		t.Errorf("TotalBytes = %d, want 15", summary.TotalBytes)
	}
}

func TestWalkSanitizeRenames(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("cannot create invalid-character names on Windows")
	}

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "bad<name>.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	sink := &memorySink{}
	w := NewWalker(Options{Root: root, Sanitize: true}, sink)
	summary, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	var fileRow *types.InventoryRow
	for i := range sink.rows {
		if sink.rows[i].Type == types.EntryFile {
			fileRow = &sink.rows[i]
		}
	}
	if fileRow == nil {
		t.Fatal("no file row emitted")
	}
	if fileRow.OldName != "bad<name>.txt" {
		t.Errorf("OldName = %q, want bad<name>.txt", fileRow.OldName)
	}
	if fileRow.NewName != "bad_name.txt" {
		t.Errorf("NewName = %q, want bad_name.txt", fileRow.NewName)
	}

	if _, err := os.Stat(filepath.Join(root, "bad_name.txt")); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "bad<name>.txt")); !os.IsNotExist(err) {
		t.Error("original invalid name still present")
	}
	if summary.Renamed != 1 || summary.InvalidNames != 1 {
		t.Errorf("summary Renamed=%d InvalidNames=%d, want 1/1", summary.Renamed, summary.InvalidNames)
	}
}

func TestWalkSanitizeDryRunLeavesFilesystem(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("cannot create invalid-character names on Windows")
	}

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "bad|name.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	sink := &memorySink{}
	w := NewWalker(Options{Root: root, Sanitize: true, DryRun: true}, sink)
	summary, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "bad|name.txt")); err != nil {
		t.Errorf("dry run should not rename, but original is gone: %v", err)
	}
	if summary.Renamed != 0 {
		t.Errorf("Renamed = %d, want 0 in dry run", summary.Renamed)
	}
	if summary.InvalidNames != 1 {
		t.Errorf("InvalidNames = %d, want 1", summary.InvalidNames)
	}
}

func TestWalkRerunSameRowCount(t *testing.T) {
	root := buildTree(t)

	first := &memorySink{}
	if _, err := NewWalker(Options{Root: root}, first).Walk(context.Background()); err != nil {
		t.Fatalf("first walk: %v", err)
	}

	second := &memorySink{}
	if _, err := NewWalker(Options{Root: root}, second).Walk(context.Background()); err != nil {
		t.Fatalf("second walk: %v", err)
	}

	if len(first.rows) != len(second.rows) {
		t.Errorf("row counts differ between runs: %d vs %d", len(first.rows), len(second.rows))
	}
}

func TestWalkSymlinkSkipped(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on Windows")
	}

	root := t.TempDir()
	target := filepath.Join(root, "real")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(target, "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}

	sink := &memorySink{}
	if _, err := NewWalker(Options{Root: root}, sink).Walk(context.Background()); err != nil {
		t.Fatalf("Walk: %v", err)
	}

	skipped := sink.byStatus(types.StatusSkippedReparse)
	if len(skipped) != 1 || skipped[0].Path != filepath.Join(root, "link") {
		t.Fatalf("skipped rows = %+v, want one for the symlink", skipped)
	}

	// The real directory is still walked once, through its real path.
	count := 0
	for _, r := range sink.rows {
		if r.Path == filepath.Join(target, "f.txt") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("f.txt visited %d times, want 1", count)
	}
}

func TestWalkMaxDepth(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "l1", "l2", "l3")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(deep, "deep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	sink := &memorySink{}
	if _, err := NewWalker(Options{Root: root, MaxDepth: 1}, sink).Walk(context.Background()); err != nil {
		t.Fatalf("Walk: %v", err)
	}

	for _, r := range sink.rows {
		if r.Path == filepath.Join(root, "l1", "l2") {
			t.Error("walker descended past MaxDepth")
		}
	}

	// l1 itself is still recorded.
	found := false
	for _, r := range sink.rows {
		if r.Path == filepath.Join(root, "l1") && r.Type == types.EntryFolder {
			found = true
		}
	}
	if !found {
		t.Error("depth-capped folder missing from rows")
	}
}

func TestWalkCancellation(t *testing.T) {
	root := buildTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &memorySink{}
	summary, err := NewWalker(Options{Root: root}, sink).Walk(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if summary == nil {
		t.Fatal("cancelled walk should still return a partial summary")
	}
}

func TestWalkExclude(t *testing.T) {
	root := buildTree(t)

	sink := &memorySink{}
	w := NewWalker(Options{Root: root, Exclude: []string{filepath.Join(root, "b")}}, sink)
	if _, err := w.Walk(context.Background()); err != nil {
		t.Fatalf("Walk: %v", err)
	}

	for _, r := range sink.rows {
		if r.Path == filepath.Join(root, "b") || r.Path == filepath.Join(root, "b", "c.txt") {
			t.Errorf("excluded path %s was visited", r.Path)
		}
	}
}
