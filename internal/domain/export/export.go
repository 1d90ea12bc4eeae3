// Package export builds tabular roster exports for CSV downloads and spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"meetdesk/internal/domain/domainerr"
)

// Format constants for export file format.
const (
	FormatCSV    = "csv"
	FormatSheets = "sheets"
)

// MaxTabName is the longest sheet tab name Google Sheets accepts.
const MaxTabName = 100

// Domain errors.
var (
	ErrSheetsDisabled = domainerr.Invalid("Google Sheets export is not configured")
	ErrRaggedRow      = domainerr.Invalid("row width does not match the header")
)

// Table is a header plus rows of equal width.
type Table struct {
	Name   string // tab name for spreadsheets, file stem for CSV
	Header []string
	Rows   [][]string
}

// Append adds one row.
// PRE: len(row) == len(t.Header)
func (t *Table) Append(row ...string) {
	t.Rows = append(t.Rows, row)
}

// Validate checks every row has the header's width.
func (t *Table) Validate() error {
	for i, r := range t.Rows {
		if len(r) != len(t.Header) {
			return fmt.Errorf("row %d: %w", i+1, ErrRaggedRow)
		}
	}
	return nil
}

// WriteCSV writes the header and rows as RFC 4180 CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	if err := t.Validate(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// SheetRows converts the table into the value grid the Sheets API takes.
func (t *Table) SheetRows() [][]interface{} {
	out := make([][]interface{}, 0, len(t.Rows)+1)
	out = append(out, cells(t.Header))
	for _, r := range t.Rows {
		out = append(out, cells(r))
	}
	return out
}

// TabName is Name cut to the Sheets limit.
func (t *Table) TabName() string {
	if len(t.Name) > MaxTabName {
		return t.Name[:MaxTabName]
	}
	return t.Name
}

// Filename is "<name>-<yyyymmdd>.csv".
func (t *Table) Filename(now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", t.Name, now.Format("20060102"))
}

func cells(r []string) []interface{} {
	out := make([]interface{}, len(r))
	for i, v := range r {
		out[i] = v
	}
	return out
}
