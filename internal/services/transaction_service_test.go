package services

import (
	"context"
	"testing"
	"time"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/statement"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/storage"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAutoCategorization(t *testing.T) {
	repo := newTestRepo(t)
	catSvc := NewCategoryService(repo)
	txSvc := NewTransactionService(repo, nil)
	userID := seedUser(t, repo)
	ctx := context.Background()

	shopping := mustCreateCategory(t, catSvc, userID, "Shopping", "", core.Expense)
	groceries := mustCreateCategory(t, catSvc, userID, "Groceries", "", core.Expense)
	if err := catSvc.SetKeywords(ctx, userID, shopping.ID, []string{"store"}); err != nil {
		t.Fatalf("set keywords: %v", err)
	}
	if err := catSvc.SetKeywords(ctx, userID, groceries.ID, []string{"grocery store", "supermarket"}); err != nil {
		t.Fatalf("set keywords: %v", err)
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"longest keyword wins", "Corner Grocery Store purchase", groceries.ID},
		{"shorter keyword", "Department Store", shopping.ID},
		{"case insensitive", "SUPERMARKET ESSELUNGA", groceries.ID},
		{"no match", "Cinema ticket", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := txSvc.Categorize(ctx, userID, core.Expense, tt.text)
			if err != nil {
				t.Fatalf("Categorize: %v", err)
			}
			if got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}

	// Create without a category picks one up from the keywords.
	created, err := txSvc.Create(ctx, core.Transaction{
		UserID:      userID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 4500},
		Date:        date(2025, time.June, 5),
		Description: "Weekly shop",
		Merchant:    "City Supermarket",
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if created.CategoryID != groceries.ID {
		t.Fatalf("auto category = %q, want %q", created.CategoryID, groceries.ID)
	}
}

func TestCategorizeHonorsTransactionType(t *testing.T) {
	repo := newTestRepo(t)
	catSvc := NewCategoryService(repo)
	txSvc := NewTransactionService(repo, nil)
	userID := seedUser(t, repo)
	ctx := context.Background()

	salary := mustCreateCategory(t, catSvc, userID, "Salary", "", core.Income)
	if err := catSvc.SetKeywords(ctx, userID, salary.ID, []string{"acme corp"}); err != nil {
		t.Fatalf("set keywords: %v", err)
	}

	// An income keyword never captures an expense.
	got, err := txSvc.Categorize(ctx, userID, core.Expense, "Acme Corp company shop")
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if got != "" {
		t.Fatalf("expense categorization matched income category %q", got)
	}

	got, err = txSvc.Categorize(ctx, userID, core.Income, "ACME CORP payroll June")
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if got != salary.ID {
		t.Fatalf("income categorization = %q, want %q", got, salary.ID)
	}
}

func TestTransactionUpdateRecategorize(t *testing.T) {
	repo := newTestRepo(t)
	catSvc := NewCategoryService(repo)
	txSvc := NewTransactionService(repo, nil)
	userID := seedUser(t, repo)
	ctx := context.Background()

	groceries := mustCreateCategory(t, catSvc, userID, "Groceries", "", core.Expense)
	other := mustCreateCategory(t, catSvc, userID, "Other", "", core.Expense)
	if err := catSvc.SetKeywords(ctx, userID, groceries.ID, []string{"supermarket"}); err != nil {
		t.Fatalf("set keywords: %v", err)
	}

	tx, err := txSvc.Create(ctx, core.Transaction{
		UserID:      userID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 2000},
		Date:        date(2025, time.June, 1),
		Description: "Supermarket run",
		CategoryID:  other.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	empty := ""
	updated, err := txSvc.Update(ctx, userID, tx.ID, TransactionUpdate{CategoryID: &empty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CategoryID != groceries.ID {
		t.Fatalf("recategorized to %q, want %q", updated.CategoryID, groceries.ID)
	}
}

func TestBulkDeleteTally(t *testing.T) {
	repo := newTestRepo(t)
	txSvc := NewTransactionService(repo, nil)
	userID := seedUser(t, repo)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		tx, err := txSvc.Create(ctx, core.Transaction{
			UserID:      userID,
			Type:        core.Expense,
			Amount:      core.Money{Cents: 1000},
			Date:        date(2025, time.June, i+1),
			Description: "Item",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, tx.ID)
	}
	ids = append(ids, "missing-id")

	res, err := txSvc.BulkDelete(ctx, userID, ids)
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if res.Succeeded != 3 || res.Failed != 1 {
		t.Fatalf("tally = %d/%d, want 3/1", res.Succeeded, res.Failed)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(res.Errors))
	}

	_, total, err := txSvc.List(ctx, storage.TransactionFilter{UserID: userID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 {
		t.Fatalf("remaining = %d, want 0", total)
	}
}

func TestImportContinuesPastBadRows(t *testing.T) {
	repo := newTestRepo(t)
	catSvc := NewCategoryService(repo)
	txSvc := NewTransactionService(repo, nil)
	userID := seedUser(t, repo)
	ctx := context.Background()

	food := mustCreateCategory(t, catSvc, userID, "Food", "", core.Expense)

	rows := []statement.Row{
		{Line: 2, Date: date(2025, time.June, 1), Description: "Lunch", AmountCents: 1500, Type: core.Expense, CategoryHint: "Food"},
		{Line: 3, Date: date(2025, time.June, 2), Description: "", AmountCents: 900, Type: core.Expense},
		{Line: 4, Date: date(2025, time.June, 3), Description: "Salary", AmountCents: 250000, Type: core.Income, CategoryHint: "Nonexistent"},
	}

	res, err := txSvc.Import(ctx, userID, rows)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Imported != 2 || res.Failed != 1 {
		t.Fatalf("tally = %d/%d, want 2/1: %+v", res.Imported, res.Failed, res.Errors)
	}
	if len(res.Errors) != 1 || res.Errors[0].Line != 3 {
		t.Fatalf("errors = %+v, want one at line 3", res.Errors)
	}

	list, _, err := txSvc.List(ctx, storage.TransactionFilter{UserID: userID, CategoryID: food.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("category-hinted imports = %d, want 1", len(list))
	}
}

func TestAnalyze(t *testing.T) {
	repo := newTestRepo(t)
	catSvc := NewCategoryService(repo)
	txSvc := NewTransactionService(repo, nil)
	userID := seedUser(t, repo)
	ctx := context.Background()

	food := mustCreateCategory(t, catSvc, userID, "Food", "", core.Expense)
	transport := mustCreateCategory(t, catSvc, userID, "Transport", "", core.Expense)

	seed := []struct {
		cents      int64
		categoryID string
	}{
		{60000, food.ID},
		{5000, food.ID},
		{35000, transport.ID},
	}
	for i, s := range seed {
		_, err := txSvc.Create(ctx, core.Transaction{
			UserID:      userID,
			Type:        core.Expense,
			Amount:      core.Money{Cents: s.cents},
			Date:        date(2025, time.June, i+1),
			Description: "Seed",
			CategoryID:  s.categoryID,
		})
		if err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}

	analysis, err := txSvc.Analyze(ctx, userID, core.Expense, date(2025, time.June, 1), date(2025, time.June, 30))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.TotalCents != 100000 || analysis.Count != 3 {
		t.Fatalf("total/count = %d/%d, want 100000/3", analysis.TotalCents, analysis.Count)
	}
	if analysis.ByCategory[0].Name != "Food" || analysis.ByCategory[0].Percent != 65.0 {
		t.Fatalf("top category = %s %.2f%%, want Food 65%%", analysis.ByCategory[0].Name, analysis.ByCategory[0].Percent)
	}
	if analysis.ByCategory[0].AvgAmountCents != 32500 {
		t.Fatalf("avg = %d, want 32500", analysis.ByCategory[0].AvgAmountCents)
	}
}
