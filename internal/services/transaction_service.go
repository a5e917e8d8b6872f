package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/statement"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/storage"
)

// importConcurrency bounds the workers handling statement import rows.
const importConcurrency = 4

// ReportInvalidator drops cached report data for a user after their
// transactions change. Implemented by ReportService.
type ReportInvalidator interface {
	InvalidateUser(userID string)
}

// TransactionService owns transaction CRUD, keyword auto-categorization,
// bulk operations, and statement import.
type TransactionService struct {
	storage     *storage.Repository
	invalidator ReportInvalidator
}

// NewTransactionService builds the service. invalidator may be nil when no
// report cache is in play (tests, the notify worker).
func NewTransactionService(storage *storage.Repository, invalidator ReportInvalidator) *TransactionService {
	return &TransactionService{storage: storage, invalidator: invalidator}
}

func (s *TransactionService) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(userID)
	}
}

// Create validates and stores a transaction. When no category is given, the
// keyword matcher picks one from the description and merchant.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, core.Validationf("invalid transaction: %v", err)
	}

	if t.CategoryID != "" {
		cat, err := s.storage.GetCategory(ctx, t.UserID, t.CategoryID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("resolve category: %w", err)
		}
		if cat.Type != t.Type {
			return core.Transaction{}, core.Validationf("category %q has type %s, want %s", cat.Name, cat.Type, t.Type)
		}
	} else {
		categoryID, err := s.Categorize(ctx, t.UserID, t.Type, t.Description+" "+t.Merchant)
		if err != nil {
			return core.Transaction{}, err
		}
		t.CategoryID = categoryID
	}

	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.storage.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.invalidate(t.UserID)

	slog.InfoContext(ctx, "Transaction created",
		"id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"amount", t.Amount.String(),
		"category_id", t.CategoryID)

	return t, nil
}

// Categorize returns the category whose keyword matches the text, or "" when
// nothing matches. Only categories of the given type are considered. The
// longest matching keyword wins so that "grocery store" beats "store".
func (s *TransactionService) Categorize(ctx context.Context, userID string, typ core.TransactionType, text string) (string, error) {
	keywords, err := s.storage.ListCategoryKeywords(ctx, userID, typ)
	if err != nil {
		return "", fmt.Errorf("list keywords: %w", err)
	}
	if len(keywords) == 0 {
		return "", nil
	}

	haystack := strings.ToLower(text)
	var bestKeyword, bestCategory string
	for kw, categoryID := range keywords {
		if !strings.Contains(haystack, kw) {
			continue
		}
		if len(kw) > len(bestKeyword) || (len(kw) == len(bestKeyword) && kw < bestKeyword) {
			bestKeyword = kw
			bestCategory = categoryID
		}
	}
	return bestCategory, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, userID, id)
}

// TransactionUpdate carries the mutable fields; nil pointers keep the current
// value. An explicit empty CategoryID re-runs auto-categorization.
type TransactionUpdate struct {
	Amount      *core.Money
	Date        *time.Time
	Description *string
	Merchant    *string
	CategoryID  *string
	Tags        *[]string
}

func (s *TransactionService) Update(ctx context.Context, userID, id string, upd TransactionUpdate) (core.Transaction, error) {
	t, err := s.storage.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if upd.Amount != nil {
		t.Amount = *upd.Amount
	}
	if upd.Date != nil {
		t.Date = *upd.Date
	}
	if upd.Description != nil {
		t.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Merchant != nil {
		t.Merchant = strings.TrimSpace(*upd.Merchant)
	}
	if upd.Tags != nil {
		t.Tags = *upd.Tags
	}
	if upd.CategoryID != nil {
		switch *upd.CategoryID {
		case "":
			categoryID, err := s.Categorize(ctx, userID, t.Type, t.Description+" "+t.Merchant)
			if err != nil {
				return core.Transaction{}, err
			}
			t.CategoryID = categoryID
		default:
			cat, err := s.storage.GetCategory(ctx, userID, *upd.CategoryID)
			if err != nil {
				return core.Transaction{}, fmt.Errorf("resolve category: %w", err)
			}
			if cat.Type != t.Type {
				return core.Transaction{}, core.Validationf("category %q has type %s, want %s", cat.Name, cat.Type, t.Type)
			}
			t.CategoryID = *upd.CategoryID
		}
	}

	if err := t.Validate(); err != nil {
		return core.Transaction{}, core.Validationf("invalid transaction: %v", err)
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	s.invalidate(userID)
	return t, nil
}

// Delete soft deletes one transaction. The row stays in the database but
// disappears from every list and aggregate.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.storage.SoftDeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// List returns one page of transactions plus the total match count. The page
// size defaults to 50 and is capped at 200.
func (s *TransactionService) List(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	if f.Page < 1 {
		f.Page = 1
	}
	return s.storage.ListTransactions(ctx, f)
}

// BulkResult tallies a bulk operation that continues past per-item failures.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    []string
}

// BulkDelete soft deletes each id independently, so one bad id never aborts
// the batch.
func (s *TransactionService) BulkDelete(ctx context.Context, userID string, ids []string) (BulkResult, error) {
	var res BulkResult
	for _, id := range ids {
		if err := s.storage.SoftDeleteTransaction(ctx, userID, id); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		res.Succeeded++
	}
	if res.Succeeded > 0 {
		s.invalidate(userID)
	}
	slog.InfoContext(ctx, "Bulk delete finished",
		"user_id", userID,
		"succeeded", res.Succeeded,
		"failed", res.Failed)
	return res, nil
}

// CategoryBreakdown is one category's slice of a spending analysis.
type CategoryBreakdown struct {
	CategoryID     string  `json:"category_id,omitempty"`
	Name           string  `json:"name"`
	AmountCents    int64   `json:"amount_cents"`
	Percent        float64 `json:"percent"`
	Count          int64   `json:"count"`
	AvgAmountCents int64   `json:"avg_amount_cents"`
}

// SpendingAnalysis summarizes a period's transactions of one type.
type SpendingAnalysis struct {
	TotalCents int64               `json:"total_cents"`
	Count      int64               `json:"count"`
	ByCategory []CategoryBreakdown `json:"by_category"`
}

// Analyze groups a period's transactions by category with share percentages
// and average transaction sizes.
func (s *TransactionService) Analyze(ctx context.Context, userID string, typ core.TransactionType, from, to time.Time) (SpendingAnalysis, error) {
	sums, err := s.storage.SumByCategory(ctx, userID, typ, from, to)
	if err != nil {
		return SpendingAnalysis{}, fmt.Errorf("sum by category: %w", err)
	}

	var analysis SpendingAnalysis
	for _, sum := range sums {
		analysis.TotalCents += sum.Cents
		analysis.Count += sum.Count
	}
	total := core.Money{Cents: analysis.TotalCents}

	analysis.ByCategory = make([]CategoryBreakdown, len(sums))
	for i, sum := range sums {
		name := sum.Name
		if name == "" {
			name = "Uncategorized"
		}
		b := CategoryBreakdown{
			CategoryID:  sum.CategoryID,
			Name:        name,
			AmountCents: sum.Cents,
			Percent:     core.Money{Cents: sum.Cents}.PercentOf(total),
			Count:       sum.Count,
		}
		if sum.Count > 0 {
			b.AvgAmountCents = sum.Cents / sum.Count
		}
		analysis.ByCategory[i] = b
	}
	return analysis, nil
}

// ImportError ties an import failure back to its statement line.
type ImportError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

// ImportResult tallies a statement import.
type ImportResult struct {
	Imported int           `json:"imported"`
	Failed   int           `json:"failed"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// Import stores parsed statement rows as transactions, a bounded worker pool
// handling rows concurrently. Category hints are resolved by name first, the
// keyword matcher second. Row failures are collected, never fatal.
func (s *TransactionService) Import(ctx context.Context, userID string, rows []statement.Row) (ImportResult, error) {
	var (
		mu  sync.Mutex
		res ImportResult
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(importConcurrency)

	for _, row := range rows {
		g.Go(func() error {
			if err := s.importRow(ctx, userID, row); err != nil {
				mu.Lock()
				res.Failed++
				res.Errors = append(res.Errors, ImportError{Line: row.Line, Err: err.Error()})
				mu.Unlock()
				return nil
			}
			mu.Lock()
			res.Imported++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	sort.Slice(res.Errors, func(i, j int) bool { return res.Errors[i].Line < res.Errors[j].Line })
	if res.Imported > 0 {
		s.invalidate(userID)
	}

	slog.InfoContext(ctx, "Statement import finished",
		"user_id", userID,
		"imported", res.Imported,
		"failed", res.Failed)

	return res, nil
}

func (s *TransactionService) importRow(ctx context.Context, userID string, row statement.Row) error {
	t := core.Transaction{
		UserID:      userID,
		Type:        row.Type,
		Amount:      core.Money{Cents: row.AmountCents},
		Date:        row.Date,
		Description: row.Description,
		Merchant:    row.Merchant,
	}
	if err := t.Validate(); err != nil {
		return err
	}

	if row.CategoryHint != "" {
		cat, err := s.storage.GetCategoryByName(ctx, userID, row.Type, row.CategoryHint)
		switch {
		case err == nil:
			t.CategoryID = cat.ID
		case !core.IsNotFound(err):
			return fmt.Errorf("resolve category hint: %w", err)
		}
	}
	if t.CategoryID == "" {
		categoryID, err := s.Categorize(ctx, userID, t.Type, t.Description+" "+t.Merchant)
		if err != nil {
			return err
		}
		t.CategoryID = categoryID
	}

	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	return s.storage.CreateTransaction(ctx, t)
}
