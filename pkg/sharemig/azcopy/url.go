package azcopy

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// FileShareURL builds the destination URL for an Azure Files share:
// https://<account>.file.core.windows.net/<share>[/<dest>][?<sas>].
// dest may be empty to target the share root; a leading slash is tolerated.
func FileShareURL(account, share, dest, sas string) (string, error) {
	return storageURL("file", account, share, dest, sas)
}

// BlobURL builds the destination URL for a blob container:
// https://<account>.blob.core.windows.net/<container>[/<dest>][?<sas>].
func BlobURL(account, container, dest, sas string) (string, error) {
	return storageURL("blob", account, container, dest, sas)
}

func storageURL(service, account, container, dest, sas string) (string, error) {
	if account == "" {
		return "", fmt.Errorf("storage account is required")
	}
	if container == "" {
		return "", fmt.Errorf("share or container name is required")
	}

	u := fmt.Sprintf("https://%s.%s.core.windows.net/%s", account, service, container)
	if dest = strings.Trim(dest, "/"); dest != "" {
		// Backslashes arrive from Windows-style subfolder paths.
		u += "/" + strings.ReplaceAll(dest, "\\", "/")
	}
	if sas = strings.TrimPrefix(sas, "?"); sas != "" {
		u += "?" + sas
	}
	return u, nil
}

// Redact strips the SAS query string from a URL so it can be logged. The
// query is replaced wholesale rather than per-parameter; no part of a SAS
// token is safe to keep.
func Redact(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i] + "?<redacted>"
	}
	return url
}

// RedactArgs returns a copy of args with every URL-bearing argument
// redacted, for logging the invocation.
func RedactArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = Redact(a)
	}
	return out
}

// redactWriter passes each written line through Redact before forwarding it
// to dst. azcopy echoes destination URLs, SAS included, in stderr error
// messages, so stderr needs the same treatment as the stdout stream.
type redactWriter struct {
	dst io.Writer
	buf []byte
}

func newRedactWriter(dst io.Writer) *redactWriter {
	return &redactWriter{dst: dst}
}

func (w *redactWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			return len(p), nil
		}
		line := strings.TrimRight(string(w.buf[:i]), "\r")
		w.buf = w.buf[i+1:]
		if _, err := fmt.Fprintln(w.dst, Redact(line)); err != nil {
			return len(p), err
		}
	}
}

// Flush forwards any unterminated trailing line.
func (w *redactWriter) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	line := string(w.buf)
	w.buf = nil
	_, err := fmt.Fprintln(w.dst, Redact(line))
	return err
}
