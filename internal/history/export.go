package history

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	ExportJSON = "json"
	ExportCSV  = "csv"
)

var csvColumns = []string{"id", "timestamp", "user", "template", "printer_id", "quantity", "status"}

// Export serializes the whole log. JSON keeps full entries; CSV reduces
// each entry to the fixed column set.
func (s *Store) Export(format string) ([]byte, error) {
	entries, err := s.all()
	if err != nil {
		return nil, err
	}

	switch format {
	case ExportJSON:
		return json.MarshalIndent(entries, "", "  ")
	case ExportCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(csvColumns); err != nil {
			return nil, fmt.Errorf("failed to write csv header: %w", err)
		}
		for _, e := range entries {
			record := []string{
				e.ID,
				e.Timestamp,
				e.User,
				e.Template,
				strconv.FormatInt(e.PrinterID, 10),
				strconv.Itoa(e.Quantity),
				e.Status,
			}
			if err := w.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write csv record: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("failed to flush csv: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s (supported: json, csv)", format)
	}
}
