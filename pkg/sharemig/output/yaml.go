package output

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// yamlOutput represents the full YAML output structure.
type yamlOutput struct {
	Rows []yamlRow `yaml:"rows"`
	Meta yamlMeta  `yaml:"meta"`
}

// yamlRow represents one subfolder in YAML output.
type yamlRow struct {
	Subfolder        string `yaml:"subfolder"`
	Folders          int64  `yaml:"folders"`
	Files            int64  `yaml:"files"`
	SourceBytes      int64  `yaml:"source_bytes"`
	SourceHuman      string `yaml:"source_human"`
	Status           string `yaml:"status"`
	JobID            string `yaml:"job_id,omitempty"`
	Completed        int64  `yaml:"completed"`
	Failed           int64  `yaml:"failed"`
	Skipped          int64  `yaml:"skipped"`
	BytesTransferred int64  `yaml:"bytes_transferred"`
	Duration         string `yaml:"duration,omitempty"`
}

// yamlMeta represents batch-level metadata in YAML output.
type yamlMeta struct {
	Root             string   `yaml:"root"`
	Subfolders       int      `yaml:"subfolders"`
	Completed        int      `yaml:"completed"`
	WithErrors       int      `yaml:"with_errors"`
	Failed           int      `yaml:"failed"`
	Pending          int      `yaml:"pending"`
	TotalFolders     int64    `yaml:"total_folders"`
	TotalFiles       int64    `yaml:"total_files"`
	TotalBytes       int64    `yaml:"total_bytes"`
	BytesTransferred int64    `yaml:"bytes_transferred"`
	Warnings         []string `yaml:"warnings,omitempty"`
}

// YAMLFormatter formats output as YAML.
// It produces the same structure as JSONFormatter but in YAML format.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	rows := make([]yamlRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = yamlRow{
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

	out := yamlOutput{
		Rows: rows,
		Meta: yamlMeta{
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

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return err
	}
	return encoder.Close()
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
