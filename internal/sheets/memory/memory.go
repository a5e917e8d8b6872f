// Package memory is an in-process spreadsheet fake used by tests and local
// runs without Google credentials.
package memory

import (
	"context"
	"sync"

	ports "github.com/spanexx/personal-finance-dashboard-sub003/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	Rows map[string][][]string
}

var _ ports.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{Rows: make(map[string][][]string)}
}

func (s *Store) AppendRows(_ context.Context, sheetName string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.Rows[sheetName] = append(s.Rows[sheetName], append([]string(nil), row...))
	}
	return nil
}

// Sheet returns a copy of the rows appended to one sheet.
func (s *Store) Sheet(sheetName string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.Rows[sheetName]...)
}
