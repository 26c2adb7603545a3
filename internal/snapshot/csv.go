package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV reads a whole CSV snapshot. Records may be shorter or longer than
// the header; Decode deals with the cells it knows.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Table{Header: Columns}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("failed to read csv header: %w", err)
	}

	var records [][]string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to read csv record: %w", err)
		}
		if isBlank(record) {
			continue
		}
		records = append(records, record)
	}
	return Table{Header: header, Records: records}, nil
}

// WriteCSV writes the header and rows.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func isBlank(record []string) bool {
	for _, v := range record {
		if v != "" {
			return false
		}
	}
	return true
}
