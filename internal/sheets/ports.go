// Package sheets defines the spreadsheet export port and its implementations.
package sheets

import "context"

// ReportWriter appends report rows to an external spreadsheet.
type ReportWriter interface {
	AppendRows(ctx context.Context, sheetName string, rows [][]string) error
}
