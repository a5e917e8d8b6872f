package core

import (
	"strings"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		UserID:      "u1",
		Type:        Expense,
		Amount:      Money{Cents: 1250},
		Date:        time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		Description: "groceries",
	}
}

func TestTransactionValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Transaction)
		ok     bool
	}{
		{"valid", func(*Transaction) {}, true},
		{"missing user", func(tx *Transaction) { tx.UserID = " " }, false},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, false},
		{"zero amount", func(tx *Transaction) { tx.Amount.Cents = 0 }, false},
		{"negative amount", func(tx *Transaction) { tx.Amount.Cents = -5 }, false},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, false},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, false},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 201) }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mutate(&tx)
			err := tx.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	c := Category{UserID: "u1", Name: "Food", Type: Expense}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	c.Depth = MaxCategoryDepth + 1
	if err := c.Validate(); err == nil {
		t.Fatal("expected depth error")
	}

	c = Category{UserID: "u1", Name: "Food", Type: "savings"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected type error")
	}
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{
		UserID:         "u1",
		Amount:         Money{Cents: 80000},
		Period:         PeriodMonthly,
		StartDate:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		AlertThreshold: DefaultAlertThreshold,
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	b.AlertThreshold = 0
	if err := b.Validate(); err == nil {
		t.Fatal("expected threshold error")
	}

	b.AlertThreshold = 101
	if err := b.Validate(); err == nil {
		t.Fatal("expected threshold error")
	}
}

func TestGoalProgress(t *testing.T) {
	g := Goal{Target: Money{Cents: 100000}, Current: Money{Cents: 45000}}
	if got := g.Progress(); got != 45 {
		t.Fatalf("Progress() = %v, want 45", got)
	}
	g.Target = Money{}
	if got := g.Progress(); got != 0 {
		t.Fatalf("Progress() with zero target = %v, want 0", got)
	}
}

func TestErrorKinds(t *testing.T) {
	err := NotFoundf("category %s not found", "c1")
	if !IsNotFound(err) {
		t.Fatal("expected not-found classification")
	}
	if IsConflict(err) {
		t.Fatal("unexpected conflict classification")
	}
	if k, ok := KindOf(err); !ok || k != KindNotFound {
		t.Fatalf("KindOf = %v/%v", k, ok)
	}
	if _, ok := KindOf(ErrInvalidAmount); ok {
		t.Fatal("plain errors should carry no kind")
	}
}
