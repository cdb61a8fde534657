package inventory

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsInvalidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"plain.txt", false},
		{"with spaces.txt", false},
		{"unicode-ñandú.doc", false},
		{"bad<name>.txt", true},
		{"pipe|char", true},
		{"colon:drive", true},
		{"quoted\"name", true},
		{"question?mark", true},
		{"star*glob", true},
		{"back\\slash", true},
		{"forward/slash", true},
		{"ctrl\x01char", true},
		{"trailing-dot.", true},
		{"trailing-space ", true},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsInvalidName(tt.name); got != tt.want {
			t.Errorf("IsInvalidName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in          string
		want        string
		wantChanged bool
	}{
		{"plain.txt", "plain.txt", false},
		{"bad<name>.txt", "bad_name.txt", true},
		{"a<>b.txt", "a_b.txt", true},
		{"pipe|char.doc", "pipe_char.doc", true},
		{"trailing-dot.", "trailing-dot", true},
		{"trailing-space ", "trailing-space", true},
		{"a:b:c", "a_b_c", true},
		{"<leading.txt", "_leading.txt", true},
		{"ends<", "ends", true},
		{"???", "_", true},
		{"report<2024>.csv", "report_2024.csv", true},
	}

	for _, tt := range tests {
		got, changed := SanitizeName(tt.in, "_")
		if got != tt.want || changed != tt.wantChanged {
			t.Errorf("SanitizeName(%q) = (%q, %v), want (%q, %v)",
				tt.in, got, changed, tt.want, tt.wantChanged)
		}
	}
}

func TestSanitizeNameCustomReplacement(t *testing.T) {
	got, changed := SanitizeName("a<b.txt", "-")
	if got != "a-b.txt" || !changed {
		t.Errorf("got (%q, %v), want (a-b.txt, true)", got, changed)
	}
}

func TestUniqueName(t *testing.T) {
	dir := t.TempDir()

	if got := uniqueName(dir, "fresh.txt"); got != "fresh.txt" {
		t.Errorf("unclaimed name changed to %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "taken.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := uniqueName(dir, "taken.txt"); got != "taken (2).txt" {
		t.Errorf("first collision resolved to %q, want taken (2).txt", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "taken (2).txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := uniqueName(dir, "taken.txt"); got != "taken (3).txt" {
		t.Errorf("second collision resolved to %q, want taken (3).txt", got)
	}
}
