// Package report turns a settlement summary into plain tables and writes
// them as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/carpool/internal/calculator"
)

// Table is one sheet of the report. Cells hold either strings or int64 amounts.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Filename returns the download name of a report generated on t.
func Filename(t time.Time) string {
	return fmt.Sprintf("traslados_%s.xlsx", t.Format("2006-01-02"))
}

// Tables derives the three report tables from s: what each driver is owed,
// what each person owes, and the passenger × driver matrix with totals.
func Tables(s calculator.Summary) []Table {
	drivers := Table{Name: "Por conductor", Header: []string{"Conductor", "Total"}}
	for _, d := range s.Matrix.Drivers {
		drivers.Rows = append(drivers.Rows, []any{d, s.DriverTotals[d]})
	}

	people := Table{Name: "Por persona", Header: []string{"Persona", "Debe"}}
	for _, p := range s.Matrix.Passengers {
		people.Rows = append(people.Rows, []any{p, s.PersonOwed[p]})
	}

	matrix := Table{Name: "Matriz", Header: append(append([]string{"Pasajero"}, s.Matrix.Drivers...), "Total")}
	colTotals := make([]int64, len(s.Matrix.Drivers))
	var grand int64
	for _, p := range s.Matrix.Passengers {
		row := []any{p}
		var rowTotal int64
		for i, amount := range s.Matrix.Row(p) {
			row = append(row, amount)
			rowTotal += amount
			colTotals[i] += amount
		}
		grand += rowTotal
		matrix.Rows = append(matrix.Rows, append(row, rowTotal))
	}
	totals := []any{"Total"}
	for _, t := range colTotals {
		totals = append(totals, t)
	}
	matrix.Rows = append(matrix.Rows, append(totals, grand))

	return []Table{drivers, people, matrix}
}

// WriteWorkbook writes one sheet per table to w.
func WriteWorkbook(w io.Writer, tables []Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, t := range tables {
		idx, err := f.NewSheet(t.Name)
		if err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", t.Name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeTable(f, t, bold); err != nil {
			return err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, t Table, headerStyle int) error {
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", t.Name, err)
	}

	last, err := excelize.CoordinatesToCellName(len(t.Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %q: %w", t.Name, err)
	}

	for r, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", r+1, t.Name, err)
		}
	}

	return f.SetColWidth(t.Name, "A", "A", 16)
}
