package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// invalidNameRunes are the characters Azure Files rejects in file and
// directory names. Forward and backward slashes are included so a hostile
// name copied off another filesystem cannot inject path separators.
const invalidNameRunes = `"\/:|<>*?`

// IsInvalidName reports whether name contains characters that would be
// rejected by Azure Files, including control characters and a trailing dot
// or space.
func IsInvalidName(name string) bool {
	if strings.ContainsAny(name, invalidNameRunes) {
		return true
	}
	for _, r := range name {
		if r < 0x20 {
			return true
		}
	}
	trimmed := strings.TrimRight(name, ". ")
	return trimmed != name
}

// SanitizeName rewrites name so it is valid on Azure Files. Each invalid
// character becomes the replacement string; consecutive replacements are
// collapsed and replacements adjacent to a dot or the name end are dropped,
// so "bad<name>.txt" with replacement "_" becomes "bad_name.txt".
// The boolean result reports whether the name changed.
func SanitizeName(name, replacement string) (string, bool) {
	if !IsInvalidName(name) {
		return name, false
	}

	var b strings.Builder
	lastWasReplacement := false
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(invalidNameRunes, r) {
			if !lastWasReplacement {
				b.WriteString(replacement)
				lastWasReplacement = true
			}
			continue
		}
		b.WriteRune(r)
		lastWasReplacement = false
	}

	out := b.String()
	if replacement != "" {
		// A replacement butting against a dot (or ending the stem) adds
		// nothing; "bad_name_.txt" reads worse than "bad_name.txt".
		out = strings.ReplaceAll(out, replacement+".", ".")
		out = strings.TrimSuffix(out, replacement)
	}
	out = strings.TrimRight(out, ". ")
	if out == "" {
		out = replacement
		if out == "" {
			out = "_"
		}
	}
	return out, out != name
}

// uniqueName returns a name that does not collide with an existing entry in
// dir, appending " (n)" before the extension as needed.
func uniqueName(dir, name string) string {
	if _, err := os.Lstat(filepath.Join(dir, name)); os.IsNotExist(err) {
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if _, err := os.Lstat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
	}
}
