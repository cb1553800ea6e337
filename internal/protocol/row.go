package protocol

import (
	"encoding/json"
	"fmt"
)

// Canonical status values. The server stores whatever string a client
// sends, matching the original system; these exist for clients and tests.
const (
	StatusNotCompleted = "未完成"
	StatusInProgress   = "in-progress"
	StatusCompleted    = "completed"
)

// Row is one material-list line. Row identity within a file is its
// positional index; the server never reorders rows.
type Row struct {
	Name     string
	Quantity string
	Boxes    int
	Groups   int
	Pieces   int
	Status   string
}

// The wire shape is the 6-element array the inherited clients send:
// [name, quantity, boxes, groups, pieces, status].

func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Name, r.Quantity, r.Boxes, r.Groups, r.Pieces, r.Status})
}

func (r *Row) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("row must be an array: %w", err)
	}
	if len(fields) != 6 {
		return fmt.Errorf("row has %d fields, want 6", len(fields))
	}
	if err := json.Unmarshal(fields[0], &r.Name); err != nil {
		return fmt.Errorf("row name: %w", err)
	}
	// Quantity arrives as a string from CSV-derived data but some client
	// paths send it as a bare number.
	if err := json.Unmarshal(fields[1], &r.Quantity); err != nil {
		var n json.Number
		if err2 := json.Unmarshal(fields[1], &n); err2 != nil {
			return fmt.Errorf("row quantity: %w", err)
		}
		r.Quantity = n.String()
	}
	for i, dst := range []*int{&r.Boxes, &r.Groups, &r.Pieces} {
		if err := json.Unmarshal(fields[2+i], dst); err != nil {
			return fmt.Errorf("row count field %d: %w", 2+i, err)
		}
	}
	if err := json.Unmarshal(fields[5], &r.Status); err != nil {
		return fmt.Errorf("row status: %w", err)
	}
	return nil
}

// CloneRows copies a row slice so the authoritative copy and the wire
// payload never alias.
func CloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}
