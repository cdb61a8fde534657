package types

import (
	"errors"
	"testing"
	"time"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr error
	}{
		{"0", 0, nil},
		{"1024", 1024, nil},
		{"512B", 512, nil},
		{"100K", 100 * KiB, nil},
		{"100KiB", 100 * KiB, nil},
		{"50M", 50 * MiB, nil},
		{"1.5G", int64(1.5 * float64(GiB)), nil},
		{"2T", 2 * TiB, nil},
		{"  10M  ", 10 * MiB, nil},
		{"", 0, ErrInvalidSize},
		{"abc", 0, ErrInvalidSize},
		{"-5M", 0, ErrNegativeSize},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAccessStatusAccessible(t *testing.T) {
	accessible := []AccessStatus{StatusOK, StatusPartial}
	inaccessible := []AccessStatus{StatusDenied, StatusSkippedReparse, StatusAttrDenied, StatusEnumError}

	for _, s := range accessible {
		if !s.Accessible() {
			t.Errorf("%s should be accessible", s)
		}
	}
	for _, s := range inaccessible {
		if s.Accessible() {
			t.Errorf("%s should not be accessible", s)
		}
	}
}

func TestInventoryRowRecord(t *testing.T) {
	mod := time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)
	row := InventoryRow{
		Type:          EntryFile,
		Name:          "bad_name.txt",
		OldName:       "bad<name>.txt",
		NewName:       "bad_name.txt",
		Path:          "/share/bad_name.txt",
		LastWriteTime: mod,
		FileSize:      42,
		UserHasAccess: true,
		AccessStatus:  StatusOK,
	}

	rec := row.Record()
	if len(rec) != len(InventoryHeader()) {
		t.Fatalf("record has %d fields, header has %d", len(rec), len(InventoryHeader()))
	}
	if rec[0] != "File" || rec[2] != "bad<name>.txt" || rec[7] != "42" || rec[9] != "OK" {
		t.Errorf("unexpected record: %v", rec)
	}
	if rec[6] != "" {
		t.Errorf("zero CreationTime should render empty, got %q", rec[6])
	}
}

func TestTransferSummaryRoundTrip(t *testing.T) {
	ts := TransferSummary{
		Subfolder:        "finance",
		JobID:            "d1a2b3c4-0000-1111-2222-333344445555",
		Status:           TransferCompleted,
		TotalTransfers:   120,
		Completed:        118,
		Failed:           1,
		Skipped:          1,
		BytesTransferred: 5 * GiB,
		Duration:         93 * time.Second,
		Timestamp:        time.Date(2026, 2, 1, 12, 0, 0, 0, time.Local),
		WrapperLog:       "/runs/finance/upload-logs-1.txt",
	}

	got, err := ParseTransferRecord(ts.Record())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *got != ts {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, ts)
	}
}

func TestParseTransferRecordBadLength(t *testing.T) {
	if _, err := ParseTransferRecord([]string{"too", "short"}); !errors.Is(err, ErrBadRecord) {
		t.Fatalf("want ErrBadRecord, got %v", err)
	}
}

func TestFolderSummaryRoundTrip(t *testing.T) {
	s := FolderSummary{
		RunID:               "run-42",
		Root:                "/mnt/share",
		TotalFolders:        10,
		TotalFiles:          100,
		AccessibleFolders:   9,
		InaccessibleFolders: 1,
		AccessibleFiles:     98,
		InaccessibleFiles:   2,
		Renamed:             3,
		InvalidNames:        3,
		TotalBytes:          12345,
		Elapsed:             1500 * time.Millisecond,
	}

	got, err := ParseFolderSummary(s.Render())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *got != s {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, s)
	}
}

func TestParseFolderSummaryEmpty(t *testing.T) {
	if _, err := ParseFolderSummary("not a summary"); err == nil {
		t.Fatal("expected error for content without summary fields")
	}
}
