package audit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

var csvHeader = []string{"timestamp", "tenant_id", "user_id", "action", "entity_type", "entity_id", "ip"}

// WriteCSV renders rows as CSV with a header line.
func WriteCSV(rows []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("audit: csv header: %w", err)
	}
	for _, e := range rows {
		record := []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			e.TenantID,
			e.UserID,
			e.Action,
			e.EntityType,
			e.EntityID,
			e.IP,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("audit: csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("audit: csv flush: %w", err)
	}
	return buf.Bytes(), nil
}
