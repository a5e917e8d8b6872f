// Package statement parses bank statement exports (CSV and XLSX) into rows
// ready for transaction import. Parsing is per row: a bad line is reported
// with its line number and the rest of the file still goes through.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
)

// Row is one parsed statement line. The sign of the statement amount decides
// the type: negative amounts are expenses, positive ones income. AmountCents
// is always positive.
type Row struct {
	Line         int
	Date         time.Time
	Description  string
	Merchant     string
	AmountCents  int64
	Type         core.TransactionType
	CategoryHint string
}

// RowError records why one line was skipped.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Result holds the usable rows and the per-line failures of one file.
type Result struct {
	Rows   []Row
	Errors []RowError
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseAmount reads a signed decimal amount and returns absolute cents plus
// the transaction type implied by the sign.
func parseAmount(s string) (int64, core.TransactionType, error) {
	s = strings.TrimSpace(s)
	typ := core.Income
	if strings.HasPrefix(s, "-") {
		typ = core.Expense
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0, "", err
	}
	return cents, typ, nil
}

// isHeader reports whether a record looks like a column header row.
func isHeader(record []string) bool {
	joined := strings.ToLower(strings.Join(record, " "))
	return strings.Contains(joined, "date") && strings.Contains(joined, "amount")
}

func parseRecord(line int, record []string) (Row, error) {
	if len(record) < 3 {
		return Row{}, fmt.Errorf("expected at least 3 columns (date, description, amount), got %d", len(record))
	}

	date, err := parseDate(record[0])
	if err != nil {
		return Row{}, err
	}

	description := strings.TrimSpace(record[1])
	if description == "" {
		return Row{}, fmt.Errorf("empty description")
	}

	cents, typ, err := parseAmount(record[2])
	if err != nil {
		return Row{}, fmt.Errorf("parse amount %q: %w", record[2], err)
	}

	row := Row{
		Line:        line,
		Date:        date,
		Description: description,
		AmountCents: cents,
		Type:        typ,
	}
	if len(record) > 3 {
		row.Merchant = strings.TrimSpace(record[3])
	}
	if len(record) > 4 {
		row.CategoryHint = strings.TrimSpace(record[4])
	}
	return row, nil
}

func collect(records [][]string) Result {
	var res Result
	for i, record := range records {
		line := i + 1
		empty := true
		for _, cell := range record {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		if i == 0 && isHeader(record) {
			continue
		}
		row, err := parseRecord(line, record)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Line: line, Err: err})
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// ParseCSV reads a statement in CSV form. Expected columns:
// date, description, amount[, merchant[, category]].
func ParseCSV(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("read csv: %w", err)
	}
	return collect(records), nil
}

// ParseXLSX reads the first sheet of an XLSX workbook with the same column
// layout as ParseCSV.
func ParseXLSX(r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, fmt.Errorf("workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return collect(records), nil
}
