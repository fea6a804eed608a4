package assignment

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

var csvHeader = []string{"user_id", "variant"}

// parseCSV decodes ledger rows. The header row is required; rows with
// a wrong column count or empty user id are skipped so that one bad
// row never discards the rest of the ledger.
func parseCSV(data []byte) ([]Assignment, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse assignments csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if len(records[0]) < 2 || records[0][0] != csvHeader[0] || records[0][1] != csvHeader[1] {
		return nil, fmt.Errorf("unexpected assignments header: %v", records[0])
	}
	var out []Assignment
	for _, rec := range records[1:] {
		if len(rec) != 2 || rec[0] == "" {
			continue
		}
		out = append(out, Assignment{UserID: rec[0], Variant: rec[1]})
	}
	return out, nil
}

func encodeCSV(rows []Assignment) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write assignments header: %w", err)
	}
	for _, a := range rows {
		if err := w.Write([]string{a.UserID, a.Variant}); err != nil {
			return nil, fmt.Errorf("write assignment row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush assignments csv: %w", err)
	}
	return buf.Bytes(), nil
}
