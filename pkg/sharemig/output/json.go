package output

import (
	"bytes"
	"encoding/json"
	"time"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Rows []jsonRow `json:"rows"`
	Meta jsonMeta  `json:"meta"`
}

// jsonRow represents one subfolder in JSON output.
type jsonRow struct {
	Subfolder        string `json:"subfolder"`
	Folders          int64  `json:"folders"`
	Files            int64  `json:"files"`
	SourceBytes      int64  `json:"source_bytes"`
	SourceHuman      string `json:"source_human"`
	Status           string `json:"status"`
	JobID            string `json:"job_id,omitempty"`
	Completed        int64  `json:"completed"`
	Failed           int64  `json:"failed"`
	Skipped          int64  `json:"skipped"`
	BytesTransferred int64  `json:"bytes_transferred"`
	Duration         string `json:"duration,omitempty"`
}

// jsonMeta represents batch-level metadata in JSON output.
type jsonMeta struct {
	Root             string   `json:"root"`
	Subfolders       int      `json:"subfolders"`
	Completed        int      `json:"completed"`
	WithErrors       int      `json:"with_errors"`
	Failed           int      `json:"failed"`
	Pending          int      `json:"pending"`
	TotalFolders     int64    `json:"total_folders"`
	TotalFiles       int64    `json:"total_files"`
	TotalBytes       int64    `json:"total_bytes"`
	BytesTransferred int64    `json:"bytes_transferred"`
	Warnings         []string `json:"warnings,omitempty"`
}

// JSONFormatter formats output as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildJSONOutput(r))
}

// buildJSONOutput converts Result to the JSON output structure.
func buildJSONOutput(r *Result) jsonOutput {
	rows := make([]jsonRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = jsonRow{
			Subfolder:        row.Subfolder,
			Folders:          row.Folders,
			Files:            row.Files,
			SourceBytes:      row.SourceBytes,
			SourceHuman:      row.SourceHuman,
			Status:           row.Status,
			JobID:            row.JobID,
			Completed:        row.Completed,
			Failed:           row.Failed,
			Skipped:          row.Skipped,
			BytesTransferred: row.BytesTransferred,
			Duration:         formatDurationString(row.Duration),
		}
	}

	return jsonOutput{
		Rows: rows,
		Meta: jsonMeta{
			Root:             r.Root,
			Subfolders:       len(r.Rows),
			Completed:        r.Completed,
			WithErrors:       r.WithErrors,
			Failed:           r.Failed,
			Pending:          r.Pending,
			TotalFolders:     r.TotalFolders,
			TotalFiles:       r.TotalFiles,
			TotalBytes:       r.TotalBytes,
			BytesTransferred: r.BytesTransferred,
			Warnings:         r.Warnings,
		},
	}
}

// formatDurationString formats a duration as a string for JSON output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter formats output as newline-delimited JSON (one object per
// line), suitable for streaming processing with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, row := range buildJSONOutput(r).Rows {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
