package chatlog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"time"
)

// Column names and order are part of the contract with downstream
// analysis; do not reorder.
var csvHeader = []string{"timestamp", "user_id", "variant", "task_index", "prompt", "response"}

// parseCSV decodes log rows. Rows from an older schema (wrong column
// count) or with unparseable fields are skipped with a warning rather
// than discarding the whole file.
func parseCSV(data []byte) ([]Turn, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse chat log csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if len(records[0]) < 1 || records[0][0] != csvHeader[0] {
		return nil, fmt.Errorf("unexpected chat log header: %v", records[0])
	}
	var out []Turn
	for i, rec := range records[1:] {
		if len(rec) != len(csvHeader) {
			log.Printf("skipping chat log row %d: want %d columns, got %d", i+1, len(csvHeader), len(rec))
			continue
		}
		ts, err := parseTimestamp(rec[0])
		if err != nil {
			log.Printf("skipping chat log row %d: %v", i+1, err)
			continue
		}
		idx, err := strconv.Atoi(rec[3])
		if err != nil {
			log.Printf("skipping chat log row %d: bad task index %q", i+1, rec[3])
			continue
		}
		out = append(out, Turn{
			Timestamp: ts,
			UserID:    rec[1],
			Variant:   rec[2],
			TaskIndex: idx,
			Prompt:    rec[4],
			Response:  rec[5],
		})
	}
	return out, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", s)
}

func encodeCSV(turns []Turn) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write chat log header: %w", err)
	}
	for _, t := range turns {
		rec := []string{
			t.Timestamp.Format(time.RFC3339Nano),
			t.UserID,
			t.Variant,
			strconv.Itoa(t.TaskIndex),
			t.Prompt,
			t.Response,
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write chat log row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush chat log csv: %w", err)
	}
	return buf.Bytes(), nil
}
