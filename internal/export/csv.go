package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"roadnerd/internal/roadmap"
)

// csvHeader is the fixed column set, one row per roadmap item.
var csvHeader = []string{
	"id", "type", "priority", "phase", "status", "title",
	"effort_hours", "confidence", "dependencies", "source",
}

// RenderCSV serializes roadmap items for spreadsheet import. encoding/csv
// handles RFC 4180 quoting of titles containing commas or quotes.
func RenderCSV(rm *roadmap.Roadmap) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, it := range rm.Items {
		row := []string{
			it.ID,
			string(it.Type),
			string(it.Priority),
			strconv.Itoa(it.Phase),
			string(it.Status),
			it.Title,
			strconv.FormatFloat(it.Effort.Range.Realistic, 'f', 1, 64),
			strconv.Itoa(it.Confidence),
			strings.Join(it.Dependencies, ";"),
			it.Source,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row %s: %w", it.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
