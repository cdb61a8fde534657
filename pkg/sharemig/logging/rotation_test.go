package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriterBasicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 1024})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	msg := []byte("hello log\n")
	n, err := w.Write(msg)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(msg) {
		t.Errorf("wrote %d bytes, want %d", n, len(msg))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != string(msg) {
		t.Errorf("file content = %q, want %q", data, msg)
	}
}

func TestRotatingWriterSizeRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 50})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	line := strings.Repeat("x", 30) + "\n"
	for i := 0; i < 4; i++ {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) < 2 {
		t.Errorf("expected rotated files, found only %d entries", len(entries))
	}
}

func TestRotatingWriterCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "test.log")

	w, err := NewRotatingWriter(path, RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestSequenceWriterRolls(t *testing.T) {
	dir := t.TempDir()

	w, err := NewSequenceWriter(dir, "upload-logs", ".txt", 40)
	if err != nil {
		t.Fatalf("NewSequenceWriter: %v", err)
	}
	defer w.Close()

	if got := filepath.Base(w.Path()); got != "upload-logs-1.txt" {
		t.Fatalf("first file = %s, want upload-logs-1.txt", got)
	}

	line := strings.Repeat("y", 25) + "\n"
	for i := 0; i < 2; i++ {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	if got := filepath.Base(w.Path()); got != "upload-logs-2.txt" {
		t.Errorf("after roll, current file = %s, want upload-logs-2.txt", got)
	}
}

func TestSequenceWriterResumesNumbering(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"upload-logs-1.txt", "upload-logs-3.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("old\n"), 0o644); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	w, err := NewSequenceWriter(dir, "upload-logs", ".txt", 0)
	if err != nil {
		t.Fatalf("NewSequenceWriter: %v", err)
	}
	defer w.Close()

	if got := filepath.Base(w.Path()); got != "upload-logs-4.txt" {
		t.Errorf("resumed file = %s, want upload-logs-4.txt", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"bogus", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharemig.log")

	err := Init(Config{
		Level: "debug",
		Path:  path,
		Components: map[string]string{
			"report": "error",
		},
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close()

	logger := Get("inventory")
	logger.Info("walk started", "root", "/tmp")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "walk started") {
		t.Errorf("log file missing message, got: %q", data)
	}
}
