package storage

import (
	"context"
	"testing"
	"time"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *Repository, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := repo.CreateUser(context.Background(), core.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "hash-" + id,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func seedTransaction(t *testing.T, repo *Repository, userID string, typ core.TransactionType, cents int64, date time.Time, categoryID, description string) core.Transaction {
	t.Helper()
	now := time.Now().UTC()
	tx := core.Transaction{
		ID:          "tx-" + description,
		UserID:      userID,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: description,
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("seed transaction %s: %v", description, err)
	}
	return tx
}

func TestUserLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	u, err := repo.GetUserByEmail(ctx, "u1@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u.ID != "u1" {
		t.Fatalf("got user %s, want u1", u.ID)
	}

	if _, err := repo.GetUser(ctx, "missing"); !core.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}

	// Password rotation pushes the old hash into history.
	if err := repo.UpdatePasswordHash(ctx, "u1", "hash-2"); err != nil {
		t.Fatalf("update hash: %v", err)
	}
	if err := repo.UpdatePasswordHash(ctx, "u1", "hash-3"); err != nil {
		t.Fatalf("update hash again: %v", err)
	}

	history, err := repo.ListPasswordHistory(ctx, "u1", 5)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0] != "hash-2" {
		t.Fatalf("newest history entry = %s, want hash-2", history[0])
	}

	if err := repo.TrimPasswordHistory(ctx, "u1", 1); err != nil {
		t.Fatalf("trim history: %v", err)
	}
	history, _ = repo.ListPasswordHistory(ctx, "u1", 5)
	if len(history) != 1 {
		t.Fatalf("history length after trim = %d, want 1", len(history))
	}
}

func TestResetTokenConsume(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")
	now := time.Now().UTC()

	if err := repo.CreateResetToken(ctx, "digest-1", "u1", now.Add(time.Hour)); err != nil {
		t.Fatalf("create token: %v", err)
	}

	userID, err := repo.ConsumeResetToken(ctx, "digest-1", now)
	if err != nil {
		t.Fatalf("consume token: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("token user = %s, want u1", userID)
	}

	// Second use must fail as a security error.
	if _, err := repo.ConsumeResetToken(ctx, "digest-1", now); !core.IsSecurity(err) {
		t.Fatalf("expected security error on reuse, got %v", err)
	}

	// Expired token.
	if err := repo.CreateResetToken(ctx, "digest-2", "u1", now.Add(-time.Minute)); err != nil {
		t.Fatalf("create expired token: %v", err)
	}
	if _, err := repo.ConsumeResetToken(ctx, "digest-2", now); !core.IsSecurity(err) {
		t.Fatalf("expected security error on expiry, got %v", err)
	}

	// Unknown token.
	if _, err := repo.ConsumeResetToken(ctx, "nope", now); !core.IsSecurity(err) {
		t.Fatalf("expected security error on unknown token, got %v", err)
	}
}

func TestCategoryUniquenessAndKeywords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	food := core.Category{ID: "c1", UserID: "u1", Name: "Food", Type: core.Expense, Active: true}
	if err := repo.CreateCategory(ctx, food); err != nil {
		t.Fatalf("create category: %v", err)
	}

	// Same name, same type collides on the unique index.
	dup := core.Category{ID: "c2", UserID: "u1", Name: "Food", Type: core.Expense, Active: true}
	if err := repo.CreateCategory(ctx, dup); err == nil {
		t.Fatal("expected unique constraint violation")
	}

	// Same name is fine for a different type.
	income := core.Category{ID: "c3", UserID: "u1", Name: "Food", Type: core.Income, Active: true}
	if err := repo.CreateCategory(ctx, income); err != nil {
		t.Fatalf("create income category: %v", err)
	}

	if err := repo.SetCategoryKeywords(ctx, "c1", []string{"grocery", "restaurant"}); err != nil {
		t.Fatalf("set keywords: %v", err)
	}
	keywords, err := repo.ListCategoryKeywords(ctx, "u1", core.Expense)
	if err != nil {
		t.Fatalf("list keywords: %v", err)
	}
	if keywords["grocery"] != "c1" || keywords["restaurant"] != "c1" {
		t.Fatalf("unexpected keyword map: %v", keywords)
	}
}

func TestListTransactionsFilterAndPagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")
	seedUser(t, repo, "u2")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedTransaction(t, repo, "u1", core.Expense, 1000, base, "", "coffee beans")
	seedTransaction(t, repo, "u1", core.Expense, 5000, base.AddDate(0, 0, 1), "", "groceries")
	seedTransaction(t, repo, "u1", core.Income, 250000, base.AddDate(0, 0, 2), "", "salary")
	seedTransaction(t, repo, "u2", core.Expense, 700, base, "", "other user")

	// Type filter plus user scoping.
	list, total, err := repo.ListTransactions(ctx, TransactionFilter{UserID: "u1", Type: core.Expense})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("expense list = %d/%d, want 2/2", len(list), total)
	}

	// Free-text search over description.
	list, total, err = repo.ListTransactions(ctx, TransactionFilter{UserID: "u1", Search: "coffee"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || list[0].Description != "coffee beans" {
		t.Fatalf("search hit = %v (total %d)", list, total)
	}

	// Amount bounds.
	_, total, err = repo.ListTransactions(ctx, TransactionFilter{UserID: "u1", MinCents: 2000, MaxCents: 10000})
	if err != nil {
		t.Fatalf("amount filter: %v", err)
	}
	if total != 1 {
		t.Fatalf("amount filter total = %d, want 1", total)
	}

	// Pagination: newest first.
	list, total, err = repo.ListTransactions(ctx, TransactionFilter{UserID: "u1", Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if total != 3 || len(list) != 2 {
		t.Fatalf("page 1 = %d rows (total %d), want 2 (3)", len(list), total)
	}
	if list[0].Description != "salary" {
		t.Fatalf("first row = %s, want salary (date desc)", list[0].Description)
	}
	list, _, _ = repo.ListTransactions(ctx, TransactionFilter{UserID: "u1", Page: 2, Limit: 2})
	if len(list) != 1 {
		t.Fatalf("page 2 = %d rows, want 1", len(list))
	}
}

func TestSoftDeleteExcludedEverywhere(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	tx := seedTransaction(t, repo, "u1", core.Expense, 4200, date, "", "doomed")

	if err := repo.SoftDeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "u1", tx.ID); !core.IsNotFound(err) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
	if err := repo.SoftDeleteTransaction(ctx, "u1", tx.ID); !core.IsNotFound(err) {
		t.Fatalf("expected not-found on double delete, got %v", err)
	}

	sum, err := repo.SumInRange(ctx, "u1", core.Expense, date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 0 {
		t.Fatalf("deleted transaction still aggregated: %d", sum)
	}
}

func TestAggregates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	if err := repo.CreateCategory(ctx, core.Category{ID: "c1", UserID: "u1", Name: "Food", Type: core.Expense, Active: true}); err != nil {
		t.Fatalf("create category: %v", err)
	}

	jun := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	jul := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)
	seedTransaction(t, repo, "u1", core.Expense, 30000, jun, "c1", "june food")
	seedTransaction(t, repo, "u1", core.Expense, 20000, jun.AddDate(0, 0, 3), "", "june misc")
	seedTransaction(t, repo, "u1", core.Expense, 35000, jul, "c1", "july food")

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 7, 31, 23, 59, 59, 0, time.UTC)

	byCat, err := repo.SumByCategory(ctx, "u1", core.Expense, from, to)
	if err != nil {
		t.Fatalf("sum by category: %v", err)
	}
	if len(byCat) != 2 {
		t.Fatalf("category groups = %d, want 2", len(byCat))
	}
	if byCat[0].Name != "Food" || byCat[0].Cents != 65000 || byCat[0].Count != 2 {
		t.Fatalf("top category = %+v", byCat[0])
	}

	byMonth, err := repo.SumByMonth(ctx, "u1", core.Expense, from, to)
	if err != nil {
		t.Fatalf("sum by month: %v", err)
	}
	if len(byMonth) != 2 {
		t.Fatalf("month groups = %d, want 2", len(byMonth))
	}
	if byMonth[0].Month != 6 || byMonth[0].Cents != 50000 {
		t.Fatalf("june sum = %+v", byMonth[0])
	}
	if byMonth[1].Month != 7 || byMonth[1].Cents != 35000 {
		t.Fatalf("july sum = %+v", byMonth[1])
	}

	spent, err := repo.SumForBudget(ctx, "u1", "c1", from, to)
	if err != nil {
		t.Fatalf("sum for budget: %v", err)
	}
	if spent != 65000 {
		t.Fatalf("budget spend = %d, want 65000", spent)
	}
	overall, _ := repo.SumForBudget(ctx, "u1", "", from, to)
	if overall != 85000 {
		t.Fatalf("overall spend = %d, want 85000", overall)
	}
}

func TestBudgetAndGoalRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	b := core.Budget{
		ID:             "b1",
		UserID:         "u1",
		Amount:         core.Money{Cents: 80000},
		Period:         core.PeriodMonthly,
		StartDate:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		AlertThreshold: 80,
	}
	if err := repo.CreateBudget(ctx, b); err != nil {
		t.Fatalf("create budget: %v", err)
	}
	budgets, err := repo.ListBudgets(ctx, "u1")
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if len(budgets) != 1 || budgets[0].Amount.Cents != 80000 {
		t.Fatalf("budgets = %+v", budgets)
	}

	g := core.Goal{
		ID:         "g1",
		UserID:     "u1",
		Name:       "Emergency fund",
		Target:     core.Money{Cents: 100000},
		Current:    core.Money{Cents: 40000},
		TargetDate: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		Status:     core.GoalActive,
	}
	if err := repo.CreateGoal(ctx, g); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if err := repo.UpdateGoalProgress(ctx, "u1", "g1", 60000); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	goals, err := repo.ListGoals(ctx, "u1", "")
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if goals[0].Current.Cents != 100000 {
		t.Fatalf("goal current = %d, want 100000", goals[0].Current.Cents)
	}
	if goals[0].Status != core.GoalCompleted {
		t.Fatalf("goal status = %s, want completed", goals[0].Status)
	}
}
