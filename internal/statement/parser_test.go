package statement

import (
	"strings"
	"testing"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
)

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"Date,Description,Amount,Merchant,Category",
		"2025-06-01,Groceries,-54.30,Esselunga,Food",
		"02/06/2025,Salary,+2500.00,Acme Corp,",
		"bad-date,Coffee,-2.50",
		"2025-06-03,,-10.00",
		"2025-06-04,Refund,not-a-number",
		"",
	}, "\n")

	res, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}

	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(res.Rows), res.Rows)
	}
	if len(res.Errors) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(res.Errors), res.Errors)
	}

	first := res.Rows[0]
	if first.Type != core.Expense || first.AmountCents != 5430 {
		t.Errorf("first row = %s %d cents, want expense 5430", first.Type, first.AmountCents)
	}
	if first.Merchant != "Esselunga" || first.CategoryHint != "Food" {
		t.Errorf("first row merchant/category = %q/%q", first.Merchant, first.CategoryHint)
	}

	second := res.Rows[1]
	if second.Type != core.Income || second.AmountCents != 250000 {
		t.Errorf("second row = %s %d cents, want income 250000", second.Type, second.AmountCents)
	}
	if second.Date.Day() != 2 || second.Date.Month() != 6 {
		t.Errorf("second row date = %v, want 2025-06-02", second.Date)
	}

	for _, re := range res.Errors {
		if re.Line == 0 || re.Err == nil {
			t.Errorf("row error missing line or cause: %+v", re)
		}
	}
}

func TestParseCSVNoHeader(t *testing.T) {
	input := "2025-06-01,Groceries,-54.30\n"
	res, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(res.Rows) != 1 || len(res.Errors) != 0 {
		t.Fatalf("rows=%d errors=%d, want 1/0", len(res.Rows), len(res.Errors))
	}
}

func TestParseAmountSigns(t *testing.T) {
	tests := []struct {
		in    string
		cents int64
		typ   core.TransactionType
		ok    bool
	}{
		{"-12.34", 1234, core.Expense, true},
		{"+12.34", 1234, core.Income, true},
		{"12.34", 1234, core.Income, true},
		{"-12,34", 1234, core.Expense, true},
		{"0", 0, "", false},
		{"abc", 0, "", false},
	}
	for _, tt := range tests {
		cents, typ, err := parseAmount(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("parseAmount(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if err == nil && (cents != tt.cents || typ != tt.typ) {
			t.Errorf("parseAmount(%q) = %d %s, want %d %s", tt.in, cents, typ, tt.cents, tt.typ)
		}
	}
}
