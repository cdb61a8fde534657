package output

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// CSVFormatter formats output as CSV, one row per subfolder, for feeding
// the consolidation into spreadsheets.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	cw := csv.NewWriter(w)

	header := []string{
		"Subfolder", "Folders", "Files", "SourceBytes",
		"Status", "JobID", "Completed", "Failed", "Skipped",
		"BytesTransferred", "Duration",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range r.Rows {
		rec := []string{
			row.Subfolder,
			strconv.FormatInt(row.Folders, 10),
			strconv.FormatInt(row.Files, 10),
			strconv.FormatInt(row.SourceBytes, 10),
			row.Status,
			row.JobID,
			strconv.FormatInt(row.Completed, 10),
			strconv.FormatInt(row.Failed, 10),
			strconv.FormatInt(row.Skipped, 10),
			strconv.FormatInt(row.BytesTransferred, 10),
			formatDurationString(row.Duration),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)
