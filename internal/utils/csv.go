package utils

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// BuildCSV renders a header row followed by data rows. Fields are quoted
// and comma-separated per RFC 4180; encoding/csv handles the escaping.
func BuildCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CSVFilename builds an export filename carrying the current date, e.g.
// "invoices-2026-08-29.csv".
func CSVFilename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", prefix, now.UTC().Format("2006-01-02"))
}
