package utils

import (
	"strings"
	"testing"
	"time"
)

func TestBuildCSVQuotesEmbeddedCommasAndQuotes(t *testing.T) {
	data, err := BuildCSV(
		[]string{"invoice_number", "status"},
		[][]string{
			{"INV-000001", "sent"},
			{`Acme, "West" branch`, "draft"},
		},
	)
	if err != nil {
		t.Fatalf("BuildCSV: %v", err)
	}
	got := string(data)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %q", len(lines), got)
	}
	if lines[0] != "invoice_number,status" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != `"Acme, ""West"" branch",draft` {
		t.Errorf("quoted row = %q", lines[2])
	}
}

func TestCSVFilenameCarriesDate(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)
	if got := CSVFilename("ar-aging", now); got != "ar-aging-2026-08-29.csv" {
		t.Errorf("CSVFilename = %q", got)
	}
}
